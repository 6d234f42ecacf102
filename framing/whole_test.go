package framing

import (
	"context"
	"strings"
	"testing"
)

func TestWhole_Run(t *testing.T) {
	ctx := context.Background()
	out := make(chan []byte, 1)

	err := Whole().Run(ctx, strings.NewReader("Hello\nGoodbye\n"), out)
	if err != nil {
		t.Error(err)
	}

	onlyFrame := <-out
	const expected = "Hello\nGoodbye\n"
	if expected != string(onlyFrame) {
		t.Errorf(`Expected "%s" but got "%s"`, expected, onlyFrame)
	}
	if _, more := <-out; more {
		t.Error("expected the channel to be closed")
	}
}
