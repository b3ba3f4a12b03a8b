package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gapless/explainbot/internal/bot"
	"github.com/gapless/explainbot/internal/bot/tasks"
	"github.com/gapless/explainbot/internal/config"
	"github.com/gapless/explainbot/internal/discord"
	"github.com/gapless/explainbot/internal/explainer"
	"github.com/gapless/explainbot/internal/format"
	"github.com/gapless/explainbot/internal/logger"
	"github.com/gapless/explainbot/internal/slack"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the enabled platform bots and the scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

// runServe initializes every component (config, logger, explainer client,
// platform bots, scheduler) and blocks until shutdown.
func runServe(ctx context.Context, configPath string) error {
	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}

	client, err := explainer.NewClient(cfg.Explainer, log)
	if err != nil {
		log.Error("Failed to initialize explainer client", "error", err)
		return err
	}
	formatter := format.New(cfg.Messages)

	components := make(map[string]bot.Component)
	if cfg.Discord.Enabled {
		d, err := discord.New(cfg.Discord, discord.Deps{Logger: log, Explainer: client, Formatter: formatter})
		if err != nil {
			log.Error("Failed to create Discord bot", "error", err)
			return err
		}
		components["discord"] = d
	}
	if cfg.Slack.Enabled {
		components["slack"] = slack.New(cfg.Slack, slack.Deps{Logger: log, Explainer: client, Formatter: formatter})
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:    log,
		Explainer: client,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}

	log.Info("Starting bot...", "discord", cfg.Discord.Enabled, "slack", cfg.Slack.Enabled)
	runErr := bot.NewBot(log, components, sched).Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return runErr
	}

	log.Info("Bot stopped gracefully.")
	return nil
}

// setup loads the configuration and installs the logger it describes.
func setup(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)
	return cfg, log, nil
}
