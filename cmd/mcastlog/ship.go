package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/codec"
	"github.com/nicwaller/mcastlog/filter"
	"github.com/nicwaller/mcastlog/input"
	"github.com/nicwaller/mcastlog/output"
	"github.com/spf13/cobra"
)

func createShipCommand(app *appContext) *cobra.Command {
	var (
		level     string
		logger    string
		minLevel  string
		format    string
		heartbeat time.Duration
		labels    map[string]string
	)

	shipCmd := &cobra.Command{
		Use:   "ship",
		Short: "Read log lines from stdin and send each as a multicast datagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.cfg.Multicast
			flags := cmd.Flags()
			if flags.Changed("remote-host") {
				opts.RemoteHost, _ = flags.GetString("remote-host")
			}
			if flags.Changed("port") {
				opts.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("ttl") {
				opts.TimeToLive, _ = flags.GetInt("ttl")
			}
			if flags.Changed("encoding") {
				opts.Encoding, _ = flags.GetString("encoding")
			}
			if flags.Changed("location-info") {
				opts.LocationInfo, _ = flags.GetBool("location-info")
			}
			if flags.Changed("application") {
				opts.Application, _ = flags.GetString("application")
			}
			if flags.Changed("advertise") {
				opts.Advertise, _ = flags.GetBool("advertise")
			}

			lineCodec, err := codecByName(format)
			if err != nil {
				return err
			}

			var announcer output.Announcer
			if opts.Advertise {
				mdnsAnnouncer, err := output.NewMDNSAnnouncer(opts.Name, opts.Port, opts.RemoteHost, nil)
				if err != nil {
					return err
				}
				announcer = mdnsAnnouncer
			}

			sender, err := output.NewMulticast(output.MulticastOptions{
				Name:         opts.Name,
				RemoteHost:   opts.RemoteHost,
				Port:         opts.Port,
				TimeToLive:   opts.TimeToLive,
				Encoding:     opts.Encoding,
				LocationInfo: opts.LocationInfo,
				Application:  opts.Application,
				Announcer:    announcer,
			})
			if err != nil {
				return err
			}
			sender.Activate()

			pipeline := mcastlog.NewPipeline("ship", mcastlog.PipelineOptions{})
			pipeline.Input("stdin", input.Stdin(input.StdinOptions{
				Codec:  lineCodec,
				Level:  level,
				Logger: logger,
			}))
			if heartbeat > 0 {
				pipeline.Input("heartbeat", input.Heartbeat(input.HeartbeatOptions{
					Interval: heartbeat,
					Logger:   logger,
				}))
			}
			for _, f := range labelFilters(labels) {
				pipeline.Filter(f.Name, f.Value)
			}
			if minLevel != "" {
				pipeline.Filter("minimum level", filter.MinLevel(minLevel))
			}
			pipeline.Output("multicast", sender)

			// the pipeline closes the sender on the way out
			return pipeline.Run(cmd.Context())
		},
	}

	flags := shipCmd.Flags()
	flags.String("remote-host", "", "multicast group or host to send to (required)")
	flags.Int("port", output.DefaultMulticastPort, "destination UDP port")
	flags.Int("ttl", 0, "multicast time to live; 0 keeps the platform default")
	flags.String("encoding", "", "charset for the datagram payload, e.g. ISO-8859-1 (default UTF-8)")
	flags.Bool("location-info", false, "include call site information")
	flags.String("application", "", "application name sent as a property")
	flags.Bool("advertise", false, "advertise the sender over mDNS")
	flags.StringVar(&level, "level", mcastlog.LevelInfo, "level for lines that do not carry one")
	flags.StringVar(&logger, "logger", "stdin", "logger name for lines that do not carry one")
	flags.StringVar(&minLevel, "min-level", "", "drop events below this level")
	flags.StringVar(&format, "format", "plain", "how to decode each line: plain, auto, json, kv, xml")
	flags.StringToStringVar(&labels, "label", nil, "extra property sent with every event, as key=value (repeatable)")
	flags.DurationVar(&heartbeat, "heartbeat", 0, "also send a heartbeat event at this interval")

	return shipCmd
}

// sorted so the filter chain is the same on every run
func labelFilters(labels map[string]string) []mcastlog.NamedEntity[mcastlog.FilterPlugin] {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	filters := make([]mcastlog.NamedEntity[mcastlog.FilterPlugin], 0, len(keys))
	for _, k := range keys {
		filters = append(filters, mcastlog.NamedEntity[mcastlog.FilterPlugin]{
			Name:  "label " + k,
			Value: filter.Label(k, labels[k]),
		})
	}
	return filters
}

func codecByName(name string) (mcastlog.CodecPlugin, error) {
	switch name {
	case "", "plain":
		return codec.Plain("message"), nil
	case "auto":
		return codec.Auto(), nil
	case "json":
		return codec.Json(), nil
	case "yaml":
		return codec.Yaml(), nil
	case "kv":
		return codec.Kv(), nil
	case "xml":
		return codec.XML(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}
