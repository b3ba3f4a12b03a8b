// Package tasks implements scheduled tasks for the explain bot.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"context"
	"log/slog"
)

// Prober checks that the explanation service is reachable.
// *explainer.Client implements it.
type Prober interface {
	Probe(ctx context.Context) error
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Explainer Prober
}
