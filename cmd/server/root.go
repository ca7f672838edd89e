package main

import (
	"github.com/spf13/cobra"
	"github.com/zeusync/pitchcontrol/internal/config"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pitchcontrol",
		Short:         "Pitch control fields from player tracking data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file (defaults apply when empty)")

	cmd.AddCommand(newServeCmd(opts), newSimulateCmd(opts))
	return cmd
}

func (o *rootOptions) load() (config.Config, error) {
	return config.LoadFile(o.configFile)
}
