package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reminder publishes completion reminders.
type Reminder interface {
	RemindPending(ctx context.Context) (int, error)
}

// ReminderWorker periodically asks reporters to confirm admin-completed issues.
type ReminderWorker struct {
	reminder Reminder
	spec     string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewReminderWorker creates a worker on the given cron schedule.
func NewReminderWorker(reminder Reminder, spec string, logger *zap.Logger) *ReminderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderWorker{
		reminder: reminder,
		spec:     spec,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start schedules the job. An empty schedule disables the worker.
func (w *ReminderWorker) Start(ctx context.Context) error {
	if w.spec == "" {
		w.logger.Info("completion reminders disabled")
		return nil
	}
	if _, err := w.cron.AddFunc(w.spec, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid reminder cron expression: %w", err)
	}
	w.cron.Start()
	w.logger.Info("completion reminders scheduled", zap.String("cron", w.spec))
	return nil
}

// RunOnce sends one round of reminders.
func (w *ReminderWorker) RunOnce(ctx context.Context) {
	sent, err := w.reminder.RemindPending(ctx)
	if err != nil {
		w.logger.Error("completion reminder run failed", zap.Error(err))
		return
	}
	w.logger.Info("completion reminders queued", zap.Int("count", sent))
}

// Stop halts scheduling and waits for a running job to finish.
func (w *ReminderWorker) Stop() {
	<-w.cron.Stop().Done()
}
