package framing

import (
	"context"
	"strings"
	"testing"
)

func TestLines_Run(t *testing.T) {
	ctx := context.Background()
	out := make(chan []byte, 3)

	err := Lines().Run(ctx, strings.NewReader("Hello\n\nGoodbye\n"), out)
	if err != nil {
		t.Error(err)
	}

	var frames []string
	for frame := range out {
		frames = append(frames, string(frame))
	}

	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames but got %d", len(frames))
	}
	const expected1 = "Hello"
	const expected2 = "Goodbye"
	if expected1 != frames[0] {
		t.Errorf(`Expected "%s" but got "%s"`, expected1, frames[0])
	}
	if expected2 != frames[1] {
		t.Errorf(`Expected "%s" but got "%s"`, expected2, frames[1])
	}
}

func TestLines_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan []byte) // nobody reads

	err := Lines().Run(ctx, strings.NewReader("Hello\n"), out)
	if err == nil {
		t.Error("expected context error")
	}
}

func TestLines_OversizedLineIsSkipped(t *testing.T) {
	ctx := context.Background()
	out := make(chan []byte, 3)

	input := "before\n" + strings.Repeat("x", MaxLineSize+10) + "\r\nafter"
	err := Lines().Run(ctx, strings.NewReader(input), out)
	if err != nil {
		t.Error(err)
	}

	var frames []string
	for frame := range out {
		frames = append(frames, string(frame))
	}
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames but got %d", len(frames))
	}
	if frames[0] != "before" || frames[1] != "after" {
		t.Errorf(`Expected "before" and "after" but got "%s" and "%s"`, frames[0], frames[1])
	}
}
