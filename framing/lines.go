package framing

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/nicwaller/mcastlog"
)

// the largest line a Lines framer will accept; longer lines are skipped
const MaxLineSize = 1024 * 1024

func Lines() mcastlog.FramingPlugin {
	return &lines{}
}

type lines struct{}

// Run emits one frame per line, without the line terminator. Empty lines are skipped.
func (p *lines) Run(ctx context.Context, reader io.Reader, frames chan<- []byte) error {
	defer close(frames) // all framing plugins must close output to signal completion!
	log := mcastlog.ContextLogger(ctx)
	br := bufio.NewReaderSize(reader, MaxLineSize)
	for {
		line, isPrefix, err := br.ReadLine()
		if isPrefix {
			// one oversized line must not end the whole stream
			skipped := len(line)
			for isPrefix && err == nil {
				line, isPrefix, err = br.ReadLine()
				skipped += len(line)
			}
			log.Warn("skipped oversized line", "bytes", skipped, "max", MaxLineSize)
			if err != nil {
				return eofIsDone(err)
			}
			continue
		}
		if err != nil {
			return eofIsDone(err)
		}
		if len(line) == 0 {
			continue
		}
		// the reader reuses its buffer, so hand out a copy
		frame := make([]byte, len(line))
		copy(frame, line)
		select {
		case frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func eofIsDone(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
