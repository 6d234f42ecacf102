package main

import (
	"os"

	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/internal/config"
	"github.com/spf13/cobra"
)

type appContext struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:           "mcastlog",
		Short:         "Ship log events as UDP multicast datagrams, and listen for them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.configPath)
			if err != nil {
				return err
			}
			app.cfg = cfg
			level := cfg.LogLevel
			if cmd.Flags().Changed("log-level") {
				level = app.logLevel
			}
			mcastlog.SetupLogging(level, os.Stderr)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "path to a YAML config file (or MCASTLOG_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")

	rootCmd.AddCommand(createShipCommand(app))
	rootCmd.AddCommand(createListenCommand(app))
	return rootCmd
}
