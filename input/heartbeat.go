package input

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/nicwaller/mcastlog"
)

func Heartbeat(opts HeartbeatOptions) mcastlog.InputPlugin {
	if opts.Interval < time.Second {
		opts.Interval = time.Second
	}
	return &heartbeat{opts: opts}
}

type heartbeat struct {
	opts HeartbeatOptions
}

type HeartbeatOptions struct {
	Interval time.Duration
	// Count stops the heartbeat after that many events; 0 runs until cancelled
	Count  int
	Logger string
	Schema mcastlog.SchemaModel
}

func (p *heartbeat) Run(ctx context.Context, send mcastlog.BatchSender) error {
	log := mcastlog.ContextLogger(ctx)
	schema := mcastlog.ResolveSchema(ctx, p.opts.Schema)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "mcastlog"
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	var lastDuration time.Duration
	for count := 0; p.opts.Count == 0 || count < p.opts.Count; count++ {
		evt := mcastlog.NewLogEvent(mcastlog.LevelInfo, p.opts.Logger, "heartbeat")
		switch schema {
		case mcastlog.SchemaNone:
			// nothing beyond the log fields
		case mcastlog.SchemaFlat:
			evt.Field("module").SetString("mcastlog")
			evt.Field("dataset").SetString("heartbeat")
			evt.Field("sequence").SetInt(count)
		default:
			evt.Field("host", "name").SetString(hostname)
			evt.Field("event", "module").SetString("mcastlog")
			evt.Field("event", "dataset").SetString("heartbeat")
			evt.Field("event", "sequence").SetInt(count)
			if lastDuration > 0 {
				evt.Field("event", "duration").SetInt(int(lastDuration))
			}
		}
		evt.SetLabel("sequence", strconv.Itoa(count))

		log.Debug("sending heartbeat")
		// don't worry about lost heartbeats, the transport is best-effort anyway
		result := send(evt)
		if !result.Ok {
			log.With("error", result.Summary()).Error("heartbeat failed")
		}
		lastDuration = result.Finish.Sub(result.Start)

		if p.opts.Count != 0 && count+1 >= p.opts.Count {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			log.Debug("stopped heartbeat")
			return nil
		}
	}

	log.Debug("stopped heartbeat")
	return nil
}
