package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/gapless/explainbot/internal/bot/tasks"
	"github.com/gapless/explainbot/internal/config"
	"github.com/gapless/explainbot/internal/logger"
)

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a new scheduler instance using gocron.
func NewScheduler(log *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "scheduler")

	s, err := gocron.NewScheduler(gocron.WithLogger(logger.NewGocronLogger(log)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start schedules all enabled tasks based on the configuration and starts
// the scheduler's internal ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduledCount := 0
	if s.cfg == nil || len(s.cfg.Tasks) == 0 {
		s.logger.Warn("No scheduler tasks configured.")
	}
	if s.cfg != nil {
		for taskName, taskConfig := range s.cfg.Tasks {
			if s.schedule(taskName, taskConfig) {
				scheduledCount++
			}
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler initialized and started", "tasks_scheduled", scheduledCount)
	return nil
}

// schedule registers one task and reports whether it was scheduled.
func (s *Scheduler) schedule(taskName string, taskConfig config.TaskConfig) bool {
	if !taskConfig.Enabled {
		s.logger.Info("Skipping disabled task", "task_name", taskName)
		return false
	}

	taskFunc, exists := s.taskMap[taskName]
	if !exists {
		s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
		return false
	}

	if taskConfig.Schedule == "" {
		s.logger.Warn("Scheduled task enabled but has empty schedule, skipping", "task_name", taskName)
		return false
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(taskConfig.Schedule, true),
		gocron.NewTask(
			func(ctx context.Context, name string) {
				s.logger.Info("Running scheduled task", "task_name", name)
				startTime := time.Now()
				if taskErr := taskFunc(ctx); taskErr != nil {
					s.logger.Error("Scheduled task failed", "task_name", name, "error", taskErr)
				}
				s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
			},
			context.Background(),
			taskName,
		),
		gocron.WithName(taskName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.logger.Error("Failed to schedule task", "task_name", taskName, "schedule", taskConfig.Schedule, "error", err)
		return false
	}

	s.logger.Info("Scheduled task", "task_name", taskName, "schedule", taskConfig.Schedule)
	return true
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Stop gracefully stops the scheduler, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}
