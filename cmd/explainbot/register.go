package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/gapless/explainbot/internal/discord"
	"github.com/gapless/explainbot/internal/format"
)

func newRegisterCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the Discord application commands and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRegister(cmd.Context(), *configPath)
		},
	}
}

func runRegister(ctx context.Context, configPath string) error {
	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}
	if !cfg.Discord.Enabled {
		return errors.New("discord is not enabled in the configuration")
	}

	d, err := discord.New(cfg.Discord, discord.Deps{Logger: log, Formatter: format.New(cfg.Messages)})
	if err != nil {
		return err
	}
	return d.RegisterCommands(ctx)
}
