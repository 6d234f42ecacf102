package codec

import (
	"testing"

	"github.com/nicwaller/mcastlog"
)

func TestPlainCodec_Encode(t *testing.T) {
	evt := mcastlog.NewEvent()
	evt.Field("message").SetString("Hello, World!")
	dat, err := Plain("message").Encode(evt)
	if err != nil {
		t.Error(err)
	}
	if string(dat) != "Hello, World!" {
		t.Errorf(`Expected "Hello, World!" but got "%s"`, dat)
	}
}

func TestPlainCodec_EncodeMissingField(t *testing.T) {
	evt := mcastlog.NewEvent()
	evt.Field("fruit").SetString("apple")
	dat, err := Plain("message").Encode(evt)
	if err != nil {
		t.Error(err)
	}
	if string(dat) != `fruit="apple"` {
		t.Errorf(`Expected kv fallback but got "%s"`, dat)
	}
}

func TestPlainCodec_Decode(t *testing.T) {
	evt, err := Plain("message").Decode([]byte("Hello, World!"))
	if err != nil {
		t.Error(err)
	}
	if v := evt.Field("message").GetString(); v != "Hello, World!" {
		t.Errorf(`Expected "Hello, World!" but got "%s"`, v)
	}
}
