package framing

import (
	"context"
	"io"

	"github.com/nicwaller/mcastlog"
)

func Whole() mcastlog.FramingPlugin {
	return &whole{}
}

type whole struct{}

// Reads as much as possible and treats it as a single message
// It's the "no-op" of framing styles
func (p *whole) Run(ctx context.Context, reader io.Reader, frames chan<- []byte) error {
	defer close(frames)
	frame, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if len(frame) == 0 {
		return nil
	}
	select {
	case frames <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
