package output

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/codec"
)

func StdOut(opts StdoutOptions) mcastlog.OutputPlugin {
	if opts.Codec == nil {
		opts.Codec = codec.Kv()
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	return &stdOut{opts: opts}
}

type stdOut struct {
	opts StdoutOptions
	mu   sync.Mutex
}

type StdoutOptions struct {
	Codec  mcastlog.CodecPlugin
	Writer io.Writer
	// Colorize paints each line by [log][level]; fatih/color turns itself off without a tty
	Colorize bool
}

var levelColors = map[string]*color.Color{
	mcastlog.LevelTrace: color.New(color.FgHiBlack),
	mcastlog.LevelDebug: color.New(color.FgHiBlack),
	mcastlog.LevelWarn:  color.New(color.FgYellow),
	mcastlog.LevelError: color.New(color.FgRed),
	mcastlog.LevelFatal: color.New(color.FgRed, color.Bold),
}

func (p *stdOut) Run(_ context.Context, event mcastlog.Event) error {
	dat, err := p.opts.Codec.Encode(event)
	if err != nil {
		return err
	}
	line := string(dat)
	if p.opts.Colorize {
		if c, ok := levelColors[event.Field(mcastlog.PathLevel...).GetString()]; ok {
			line = c.Sprint(line)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = io.WriteString(p.opts.Writer, line+"\n")
	return err
}
