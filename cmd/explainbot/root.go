package main

import (
	"github.com/spf13/cobra"
)

const rootLongDesc = `explainbot relays text from Discord and Slack to the explanation service
and posts the explanation back, with an "Explain more!" follow-up.

Configuration is read from a YAML file, a .env file and BOT_* environment
variables.`

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "explainbot",
		Short:         "Discord and Slack explanation bot",
		Long:          rootLongDesc,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yaml", "Path to configuration file")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newRegisterCmd(&configPath))
	return cmd
}
