package codec

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nicwaller/mcastlog"
)

// simple key/value pairs on a single line
// example:
//
//	key1=value key2=value
//
// See also:
//   - Logstash calls this "kv"
//     https://www.elastic.co/guide/en/logstash/current/plugins-filters-kv.html
//   - Fluentd/Fluentbit calls this "logfmt"
//     https://docs.fluentbit.io/manual/pipeline/parsers/logfmt
func Kv() mcastlog.CodecPlugin {
	return &kvCodec{}
}

type kvCodec struct{}

func (p *kvCodec) Encode(evt mcastlog.Event) ([]byte, error) {
	pairs := make([]string, 0, len(evt.Fields))
	var encodeErr error
	evt.TraverseFields(func(field mcastlog.Field) {
		value, err := field.Get()
		if err != nil {
			encodeErr = err
			return
		}
		var sb strings.Builder
		sb.WriteString(strings.Join(field.Path, "."))
		sb.WriteString(`=`)
		switch v := value.(type) {
		case string:
			sb.WriteString(`"` + strings.ReplaceAll(v, `"`, `\"`) + `"`)
		case int:
			sb.WriteString(strconv.Itoa(v))
		case int64:
			sb.WriteString(strconv.FormatInt(v, 10))
		case float64:
			sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		case bool:
			sb.WriteString(strconv.FormatBool(v))
		default:
			sb.WriteString(`"` + strings.ReplaceAll(fmt.Sprint(v), `"`, `\"`) + `"`)
		}
		pairs = append(pairs, sb.String())
	})
	if encodeErr != nil {
		return nil, encodeErr
	}
	return []byte(strings.Join(pairs, " ")), nil
}

func (p *kvCodec) Decode(dat []byte) (mcastlog.Event, error) {
	evt := mcastlog.NewEvent()
	// FIXME: values containing spaces are split apart even when quoted
	for _, field := range bytes.Fields(dat) {
		keyB, valueB, didCut := bytes.Cut(field, []byte{'='})
		if !didCut {
			if len(keyB) == 0 {
				slog.Warn("kv decoder encountered weird empty string")
				continue
			}
			evt.Field(string(field)).SetBool(true)
			continue
		}

		key := string(keyB)
		value := string(valueB)
		quot := `"`
		if len(value) >= 2 && strings.HasSuffix(value, quot) && strings.HasPrefix(value, quot) {
			value = value[1 : len(value)-1]
			value = strings.ReplaceAll(value, `\"`, `"`)
			evt.Field(key).SetString(value)
		} else if intVal, err := strconv.Atoi(value); err == nil {
			evt.Field(key).SetInt(intVal)
		} else if boolVal, err := strconv.ParseBool(value); err == nil {
			evt.Field(key).SetBool(boolVal)
		} else {
			evt.Field(key).SetString(value)
		}
	}
	return evt, nil
}
