package codec

import (
	"encoding/json"
	"strings"

	"github.com/nicwaller/mcastlog"
)

// Json is one event per JSON object. Decoding uppercases [log][level]
// so that level filters treat {"log":{"level":"warn"}} like a WARN event.
func Json() mcastlog.CodecPlugin {
	return &jsonCodec{}
}

type jsonCodec struct{}

// encoding/json sorts map keys, so output is deterministic
func (p *jsonCodec) Encode(event mcastlog.Event) ([]byte, error) {
	return json.Marshal(event.Fields)
}

func (p *jsonCodec) Decode(dat []byte) (mcastlog.Event, error) {
	evt := mcastlog.NewEvent()
	if err := json.Unmarshal(dat, &evt.Fields); err != nil {
		return evt, err
	}
	if evt.Fields == nil {
		// the literal null
		evt.Fields = make(map[string]any)
	}
	normalizeLevel(&evt)
	return evt, nil
}

func normalizeLevel(evt *mcastlog.Event) {
	level := evt.Field(mcastlog.PathLevel...)
	if v, err := level.Get(); err == nil {
		if s, ok := v.(string); ok {
			level.SetString(strings.ToUpper(s))
		}
	}
}
