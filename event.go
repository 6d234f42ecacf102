package mcastlog

import (
	"sort"
)

type Event struct {
	Fields map[string]interface{}
}

func NewEvent() Event {
	var newEvt Event
	newEvt.Fields = make(map[string]interface{})
	return newEvt
}

func (evt *Event) Field(path ...string) *Field {
	// warning: don't try to be clever and split the path components
	// on "." to get smaller path components. It must be possible to
	// specify fields that contain a "." in the Name!
	//
	// no need to verify that the field currently exists
	// because we can also use this for setting values
	return &Field{
		Path:     path,
		original: evt,
	}
}

func (evt *Event) Set(field string, value any) {
	evt.Field(field).Set(value)
}

func (evt *Event) Get(field string) any {
	return evt.Field(field).MustGet()
}

// depth first
type fieldCb func(field Field)

func (evt *Event) TraverseFields(cb fieldCb) {
	evt.traverseFields(true, cb, []string{}, evt.Fields)
}

func (evt *Event) traverseFields(inOrder bool, cb fieldCb, prefix []string, from map[string]any) {
	// getting an ordered set of keys is essential for deterministic encoding, especially for the kv codec
	keys := make([]string, 0, len(from))
	for k := range from {
		keys = append(keys, k)
	}
	if inOrder {
		sort.Strings(keys)
	}
	for _, k := range keys {
		v := from[k]
		// a fresh slice per level, otherwise siblings share the backing array
		path := make([]string, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = k
		if z, isMap := v.(map[string]any); isMap {
			evt.traverseFields(inOrder, cb, path, z)
		} else {
			cb(Field{
				Path:     path,
				original: evt,
			})
		}
	}
}

// Copy is deep: outputs may enrich their copy without racing other outputs.
func (evt *Event) Copy() Event {
	newEvt := NewEvent()
	newEvt.Fields = copyFields(evt.Fields)
	return newEvt
}

func copyFields(from map[string]any) map[string]any {
	to := make(map[string]any, len(from))
	for k, v := range from {
		if inner, isMap := v.(map[string]any); isMap {
			to[k] = copyFields(inner)
		} else {
			to[k] = v
		}
	}
	return to
}

// Merge copies every leaf of template into evt.
// Existing values are only replaced when overwrite is set.
func (evt *Event) Merge(template *Event, overwrite bool) {
	if template == nil {
		return
	}
	template.traverseFields(false, func(field Field) {
		v := field.MustGet()
		field.original = evt
		if overwrite {
			field.Set(v)
		} else {
			field.Default(v)
		}
	}, []string{}, template.Fields)
}
