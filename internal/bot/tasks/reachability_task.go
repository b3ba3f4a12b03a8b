package tasks

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/gapless/explainbot/internal/errors"
)

// probeTimeout bounds a single reachability probe.
const probeTimeout = 10 * time.Second

// newReachabilityTask creates the scheduled probe of the explanation service.
func newReachabilityTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "explainer_reachability")

	return func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		startTime := time.Now()
		err := deps.Explainer.Probe(probeCtx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Explanation service unreachable", "error", err, "code", apperrors.Code(err), "duration", duration)
			return fmt.Errorf("explainer reachability probe failed: %w", err)
		}

		log.DebugContext(ctx, "Explanation service reachable", "duration", duration)
		return nil
	}
}
