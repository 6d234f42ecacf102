package output

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nicwaller/mcastlog"
)

// SlogHandler ships slog records through a Multicast output,
// so a Go program can use it as its log appender.
type SlogHandler struct {
	sender *Multicast
	opts   SlogHandlerOptions
	labels []label
	groups []string
}

type SlogHandlerOptions struct {
	Level  slog.Leveler
	Logger string // the log4j logger name put on every event
}

type label struct {
	key   string
	value string
}

func NewSlogHandler(sender *Multicast, opts *SlogHandlerOptions) *SlogHandler {
	h := &SlogHandler{sender: sender}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	evt := mcastlog.NewLogEvent(levelName(r.Level), h.opts.Logger, r.Message)
	if !r.Time.IsZero() {
		evt.Field(mcastlog.PathTimestamp...).SetString(r.Time.Format(time.RFC3339Nano))
	}
	if h.sender.Options().LocationInfo {
		evt.SetLocation(r.PC)
	}
	for _, l := range h.labels {
		evt.SetLabel(l.key, l.value)
	}
	var recordLabels []label
	r.Attrs(func(a slog.Attr) bool {
		recordLabels = flattenAttr(recordLabels, h.groups, a)
		return true
	})
	for _, l := range recordLabels {
		evt.SetLabel(l.key, l.value)
	}
	h.sender.Send(&evt)
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, a := range attrs {
		clone.labels = flattenAttr(clone.labels, h.groups, a)
	}
	return clone
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *SlogHandler) clone() *SlogHandler {
	return &SlogHandler{
		sender: h.sender,
		opts:   h.opts,
		labels: append([]label(nil), h.labels...),
		groups: append([]string(nil), h.groups...),
	}
}

func flattenAttr(labels []label, prefix []string, a slog.Attr) []label {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return labels
	}
	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		// a group with an empty key is inlined
		if a.Key != "" {
			groupPrefix = append(append([]string(nil), prefix...), a.Key)
		}
		for _, inner := range a.Value.Group() {
			labels = flattenAttr(labels, groupPrefix, inner)
		}
		return labels
	}
	if a.Key == "" {
		return labels
	}
	key := strings.Join(append(append([]string(nil), prefix...), a.Key), ".")
	return append(labels, label{key: key, value: a.Value.String()})
}

func levelName(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return mcastlog.LevelDebug
	case level < slog.LevelWarn:
		return mcastlog.LevelInfo
	case level < slog.LevelError:
		return mcastlog.LevelWarn
	default:
		return mcastlog.LevelError
	}
}
