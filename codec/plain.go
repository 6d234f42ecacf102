package codec

import (
	"log/slog"

	"github.com/nicwaller/mcastlog"
)

func Plain(fieldName string) mcastlog.CodecPlugin {
	return &plainCodec{fieldName: fieldName}
}

type plainCodec struct {
	fieldName string
}

func (p *plainCodec) Encode(event mcastlog.Event) ([]byte, error) {
	if v, err := event.Field(p.fieldName).Get(); err == nil {
		if s, ok := v.(string); ok {
			return []byte(s), nil
		}
		return []byte(event.Field(p.fieldName).GetString()), nil
	}
	slog.Warn("missing field; falling back to kv encoding", "field", p.fieldName)
	return Kv().Encode(event)
}

func (p *plainCodec) Decode(dat []byte) (mcastlog.Event, error) {
	evt := mcastlog.NewEvent()
	evt.Field(p.fieldName).SetString(string(dat))
	return evt, nil
}
