package main

import (
	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/input"
	"github.com/nicwaller/mcastlog/output"
	"github.com/spf13/cobra"
)

func createListenCommand(app *appContext) *cobra.Command {
	var color bool

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Join a multicast group and print every log event received",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.cfg.Listen
			flags := cmd.Flags()
			if flags.Changed("group") {
				opts.Group, _ = flags.GetString("group")
			}
			if flags.Changed("port") {
				opts.Port, _ = flags.GetInt("port")
			}
			if flags.Changed("interface") {
				opts.Interface, _ = flags.GetString("interface")
			}
			if flags.Changed("format") {
				opts.Format, _ = flags.GetString("format")
			}
			if opts.Group == "" {
				// same group the sender was told about
				opts.Group = app.cfg.Multicast.RemoteHost
			}

			printCodec, err := codecByName(opts.Format)
			if err != nil {
				return err
			}

			pipeline := mcastlog.NewPipeline("listen", mcastlog.PipelineOptions{MarkIngestionTime: true})
			pipeline.Input("multicast", input.MulticastListener(opts.Group, opts.Port, input.UdpListenerOptions{
				Interface: opts.Interface,
			}))
			pipeline.Output("stdout", output.StdOut(output.StdoutOptions{
				Codec:    printCodec,
				Colorize: color,
			}))
			return pipeline.Run(cmd.Context())
		},
	}

	flags := listenCmd.Flags()
	flags.String("group", "", "multicast group to join (defaults to the configured remote host)")
	flags.Int("port", output.DefaultMulticastPort, "UDP port to listen on")
	flags.String("interface", "", "network interface to join the group on")
	flags.String("format", "kv", "how to print events: kv, json, yaml, xml")
	flags.BoolVar(&color, "color", true, "color lines by level when writing to a terminal")

	return listenCmd
}
