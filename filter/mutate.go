package filter

import (
	"github.com/nicwaller/mcastlog"
)

// Replace the value of a field with a new value, or add the field if it doesn’t already exist.
func Replace(field string, content string) mcastlog.FilterPlugin {
	return func(event *mcastlog.Event, inject chan<- mcastlog.Event, drop func()) error {
		event.Field(field).SetString(content)
		return nil
	}
}

func Remove(field string) mcastlog.FilterPlugin {
	return func(event *mcastlog.Event, inject chan<- mcastlog.Event, drop func()) error {
		event.Field(field).Delete()
		return nil
	}
}

// FIXME: rename doesn't support deep fields
func Rename(oldField string, newField string) mcastlog.FilterPlugin {
	return func(event *mcastlog.Event, inject chan<- mcastlog.Event, drop func()) error {
		oldF := event.Field(oldField)
		value, err := oldF.Get()
		if err != nil {
			// nothing to rename
			return nil
		}
		if err := event.Field(newField).SetCarefully(value); err != nil {
			return err
		}
		oldF.Delete()
		return nil
	}
}

// Label copies a constant into [labels], which travel as log4j properties.
func Label(key string, value string) mcastlog.FilterPlugin {
	return func(event *mcastlog.Event, inject chan<- mcastlog.Event, drop func()) error {
		event.SetLabel(key, value)
		return nil
	}
}
