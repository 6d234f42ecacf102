package mcastlog

import (
	"runtime"
	"sort"
	"strings"
	"time"
)

// Field paths of a log-shaped event. They follow ECS naming
// so that kv and json output stay readable next to other pipelines.
var (
	PathMessage        = []string{"message"}
	PathTimestamp      = []string{"@timestamp"}
	PathLevel          = []string{"log", "level"}
	PathLogger         = []string{"log", "logger"}
	PathThread         = []string{"process", "thread", "name"}
	PathStackTrace     = []string{"error", "stack_trace"}
	PathOrigin         = []string{"log", "origin"}
	PathOriginFile     = []string{"log", "origin", "file", "name"}
	PathOriginLine     = []string{"log", "origin", "file", "line"}
	PathOriginFunction = []string{"log", "origin", "function"}
	PathLabels         = []string{"labels"}
)

const (
	LevelTrace = "TRACE"
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

var levelRanks = map[string]int{
	LevelTrace: 0,
	LevelDebug: 1,
	LevelInfo:  2,
	LevelWarn:  3,
	LevelError: 4,
	LevelFatal: 5,
}

// LevelRank orders level names; unknown names rank as INFO.
func LevelRank(level string) int {
	level = strings.ToUpper(level)
	if level == "WARNING" {
		level = LevelWarn
	}
	if rank, ok := levelRanks[level]; ok {
		return rank
	}
	return levelRanks[LevelInfo]
}

func NewLogEvent(level string, logger string, message string) Event {
	evt := NewEvent()
	evt.Field(PathMessage...).SetString(message)
	evt.Field(PathLevel...).SetString(strings.ToUpper(level))
	if logger != "" {
		evt.Field(PathLogger...).SetString(logger)
	}
	evt.Field(PathTimestamp...).SetString(time.Now().Format(time.RFC3339Nano))
	return evt
}

// Timestamp returns the parsed @timestamp field.
func (evt *Event) Timestamp() (time.Time, bool) {
	raw := evt.Field(PathTimestamp...).GetString()
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// CaptureLocation records the call site skip frames above the caller.
func (evt *Event) CaptureLocation(skip int) {
	pc, _, _, ok := runtime.Caller(skip + 1)
	if !ok {
		return
	}
	evt.SetLocation(pc)
}

func (evt *Event) SetLocation(pc uintptr) {
	if pc == 0 {
		return
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.File == "" && frame.Function == "" {
		return
	}
	evt.Field(PathOriginFile...).SetString(frame.File)
	evt.Field(PathOriginLine...).SetInt(frame.Line)
	evt.Field(PathOriginFunction...).SetString(frame.Function)
}

func (evt *Event) HasLocation() bool {
	return evt.Field(PathOrigin...).Exists()
}

func (evt *Event) SetLabel(key string, value string) {
	evt.Field(append(PathLabels[:len(PathLabels):len(PathLabels)], key)...).SetString(value)
}

// Labels flattens [labels] into dotted keys, sorted for deterministic output.
func (evt *Event) Labels() ([]string, map[string]string) {
	raw, err := evt.Field(PathLabels...).Get()
	if err != nil {
		return nil, nil
	}
	labelMap, isMap := raw.(map[string]any)
	if !isMap {
		return nil, nil
	}
	flat := make(map[string]string)
	labels := Event{Fields: labelMap}
	labels.TraverseFields(func(field Field) {
		flat[strings.Join(field.Path, ".")] = field.GetString()
	})
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, flat
}
