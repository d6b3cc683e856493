package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"propertyops_backend/internal/config"
	"propertyops_backend/internal/runlock"
	"propertyops_backend/internal/workorders/transport"
	"propertyops_backend/platform/logger"
)

// Runner triggers automation runs. The work-orders service satisfies it.
type Runner interface {
	TriggerRun(ctx context.Context, req transport.TriggerRunRequest) (transport.RunReportResponse, error)
}

// Worker consumes automation-run tasks and registers the periodic schedule.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	runner    Runner
	log       *logger.Logger
}

func NewWorker(cfg *config.Config, runner Runner, log *logger.Logger) (*Worker, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address not configured")
	}

	opt := redisClientOpt(cfg)

	server := asynq.NewServer(opt, asynq.Config{
		// Runs are serialized by the run lock anyway; one worker slot keeps
		// rejected duplicates out of the retry queue.
		Concurrency: 1,
		Queues: map[string]int{
			queueName: 1,
		},
	})

	sched := asynq.NewScheduler(opt, nil)
	task, err := NewAutomationRunTask(AutomationRunPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := sched.Register(cfg.RunSchedule, task, asynq.Queue(queueName)); err != nil {
		return nil, fmt.Errorf("register run schedule %q: %w", cfg.RunSchedule, err)
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: sched,
		mux:       mux,
		runner:    runner,
		log:       log,
	}

	mux.HandleFunc(TaskAutomationRun, w.handleAutomationRun)

	return w, nil
}

func (w *Worker) handleAutomationRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAutomationRunPayload(task)
	if err != nil {
		return err
	}

	report, err := w.runner.TriggerRun(ctx, transport.TriggerRunRequest{Mode: payload.Mode})
	if err != nil {
		// Another process already runs; the schedule will fire again.
		if errors.Is(err, runlock.ErrHeld) {
			w.log.Info("skipping scheduled run, lock held elsewhere")
			return nil
		}
		return err
	}

	w.log.Info("scheduled automation run finished",
		"run_id", report.ID,
		"processed", report.Processed,
		"auto_assigned", report.AutoAssigned,
		"manual_review", report.ManualReview,
		"errors", report.Errors,
		"merged", report.Merged,
	)
	return nil
}

// Run starts the periodic scheduler and the task server, blocking until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.log.Error("periodic scheduler stopped", "error", err)
		}
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
