// Package bot implements lifecycle management and component orchestration
// for the explain bot: the Discord gateway, the Slack HTTP server and the
// scheduler run side by side until shutdown.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Component is a long-running part of the bot. Run blocks until ctx is done
// and returns nil on a clean shutdown.
type Component interface {
	Run(ctx context.Context) error
}

// Bot represents the main bot application and manages its components' lifecycle.
type Bot struct {
	logger     *slog.Logger
	components map[string]Component
	scheduler  *Scheduler
}

// NewBot creates the orchestrator. components maps a name used in logs to a
// platform component; disabled platforms are simply left out.
func NewBot(logger *slog.Logger, components map[string]Component, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:     logger.With("component", "bot_orchestrator"),
		components: components,
		scheduler:  scheduler,
	}
}

// Run starts every component and the scheduler, handling graceful shutdown on
// context cancellation. The first component failure stops all the others.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "components", len(b.components))

	g, gCtx := errgroup.WithContext(ctx)

	for name, component := range b.components {
		g.Go(func() error {
			b.logger.Info("Starting component", "name", name)
			if err := component.Run(gCtx); err != nil {
				b.logger.Error("Component failed", "name", name, "error", err)
				return fmt.Errorf("%s: %w", name, err)
			}
			if gCtx.Err() == nil {
				b.logger.Warn("Component stopped unexpectedly without context cancellation.", "name", name)
				return fmt.Errorf("%s stopped unexpectedly", name)
			}
			b.logger.Info("Component stopped", "name", name)
			return nil
		})
	}

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")

			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
