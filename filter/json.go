package filter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicwaller/mcastlog"
)

// Json parses a JSON object held in sourceField and lifts its keys into the event.
func Json(sourceField string) mcastlog.FilterPlugin {
	return func(event *mcastlog.Event, inject chan<- mcastlog.Event, drop func()) error {
		source := strings.TrimSpace(event.Field(sourceField).GetString())
		if !strings.HasPrefix(source, "{") ||
			!strings.HasSuffix(source, "}") {
			return fmt.Errorf("field [%s] doesn't look like JSON", sourceField)
		}
		var body map[string]interface{}
		if err := json.Unmarshal([]byte(source), &body); err != nil {
			slog.Debug(fmt.Sprintf("from %s: %s", source, err.Error()))
			return fmt.Errorf("field [%s] is not valid JSON: %w", sourceField, err)
		}
		for k, v := range body {
			if err := event.Field(k).SetCarefully(v); err != nil {
				return fmt.Errorf("unhandled field type for [%s]: %w", k, err)
			}
		}
		return nil
	}
}
