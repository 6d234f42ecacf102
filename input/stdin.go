package input

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/codec"
	"github.com/nicwaller/mcastlog/framing"
)

func Stdin(opts StdinOptions) mcastlog.InputPlugin {
	if opts.Reader == nil {
		opts.Reader = os.Stdin
	}
	if opts.Framing == nil {
		opts.Framing = framing.Lines()
	}
	if opts.Codec == nil {
		opts.Codec = codec.Plain("message")
	}
	opts.Level = strings.ToUpper(mcastlog.CoalesceStr(opts.Level, mcastlog.LevelInfo))
	return &stdInput{opts: opts}
}

type stdInput struct {
	opts StdinOptions
}

type StdinOptions struct {
	Reader  io.Reader
	Framing mcastlog.FramingPlugin
	Codec   mcastlog.CodecPlugin
	// Level and Logger fill in events that do not carry their own
	Level  string
	Logger string
}

// Run returns once the reader is exhausted.
func (p *stdInput) Run(ctx context.Context, send mcastlog.BatchSender) error {
	log := mcastlog.ContextLogger(ctx)

	frames := make(chan []byte, mcastlog.ChanBufferSize)
	framingErr := make(chan error, 1)
	go func() {
		framingErr <- p.opts.Framing.Run(ctx, p.opts.Reader, frames)
	}()

	for frame := range frames {
		evt, err := p.opts.Codec.Decode(frame)
		if err != nil {
			log.Warn("dropped undecodable line", "error", err)
			continue
		}
		template := p.eventTemplate()
		evt.Merge(&template, false)
		if result := send(evt); !result.Ok {
			log.Warn("event not accepted", "result", result.Summary())
		}
	}
	err := <-framingErr
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (p *stdInput) eventTemplate() mcastlog.Event {
	evt := mcastlog.NewLogEvent(p.opts.Level, p.opts.Logger, "")
	evt.Field(mcastlog.PathMessage...).Delete()
	evt.Field(mcastlog.PathThread...).SetString("stdin")
	return evt
}
