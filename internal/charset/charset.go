// Package charset maps IANA charset names to text encoders.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Replacement stands in for characters the target charset cannot represent.
const Replacement = '?'


// Default is what an empty encoding name means. Go strings are UTF-8,
// so this is the closest thing to a platform default.
var Default encoding.Encoding = unicode.UTF8

func Lookup(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Default, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is registered but not supported", name)
	}
	return enc, nil
}

// Encode converts UTF-8 text into enc. Characters enc cannot represent
// become Replacement, so a message is never lost over one character.
func Encode(enc encoding.Encoding, text []byte) ([]byte, error) {
	if enc == nil || enc == Default {
		return text, nil
	}
	out, err := enc.NewEncoder().Bytes(text)
	if err == nil {
		return out, nil
	}
	out, _, err = transform.Bytes(transform.Chain(replaceUnsupported(enc), enc.NewEncoder()), text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return out, nil
}

// encoding.ReplaceUnsupported substitutes the charset's own control byte (0x1A for
// charmaps), but receivers expect a visible '?'.
func replaceUnsupported(enc encoding.Encoding) transform.Transformer {
	single := enc.NewEncoder()
	return runes.Map(func(r rune) rune {
		if _, err := single.String(string(r)); err != nil {
			return Replacement
		}
		return r
	})
}
