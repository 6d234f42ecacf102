package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/nicwaller/mcastlog"
)

func Auto() mcastlog.CodecPlugin {
	return &autoCodec{}
}

type autoCodec struct{}

func (p *autoCodec) Encode(evt mcastlog.Event) ([]byte, error) {
	var c jsonCodec
	return c.Encode(evt)
}

func (p *autoCodec) Decode(dat []byte) (mcastlog.Event, error) {
	const magicNumberGzip = 0x1f8b
	const magicNumberChunkedGelf = 0x1e0f

	trimmed := bytes.TrimSpace(dat)
	if len(trimmed) == 0 {
		return mcastlog.NewEvent(), fmt.Errorf("autoCodec cannot decode an empty frame")
	}

	if len(trimmed) >= 2 && magicNumberGzip == binary.BigEndian.Uint16(trimmed) {
		return mcastlog.NewEvent(), fmt.Errorf("autoCodec doesn't support gzip")
	} else if len(trimmed) >= 2 && magicNumberChunkedGelf == binary.BigEndian.Uint16(trimmed) {
		return mcastlog.NewEvent(), fmt.Errorf("autoCodec doesn't support chunked GELF")
	} else if bytes.HasPrefix(trimmed, []byte("<log4j:event")) {
		var c xmlCodec
		return c.Decode(trimmed)
	} else if trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}' {
		var c jsonCodec
		return c.Decode(trimmed)
	} else if bytes.HasPrefix(trimmed, []byte("---")) {
		var c yamlCodec
		return c.Decode(trimmed)
	}
	c := Plain("message")
	return c.Decode(dat)
}
