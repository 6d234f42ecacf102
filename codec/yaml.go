package codec

import (
	"github.com/nicwaller/mcastlog"
	"gopkg.in/yaml.v3"
)

// Yaml is one event per YAML document. Like Json, decoding uppercases [log][level].
func Yaml() mcastlog.CodecPlugin {
	return &yamlCodec{}
}

type yamlCodec struct{}

func (p *yamlCodec) Encode(event mcastlog.Event) ([]byte, error) {
	return yaml.Marshal(event.Fields)
}

func (p *yamlCodec) Decode(dat []byte) (mcastlog.Event, error) {
	evt := mcastlog.NewEvent()
	err := yaml.Unmarshal(dat, &evt.Fields)
	if evt.Fields == nil {
		evt.Fields = make(map[string]any)
	}
	if err != nil {
		return evt, err
	}
	normalizeLevel(&evt)
	return evt, nil
}
