package worker

import (
	"context"
	"errors"
	"testing"
)

type countingReminder struct {
	calls int
	err   error
}

func (r *countingReminder) RemindPending(context.Context) (int, error) {
	r.calls++
	return 3, r.err
}

func TestReminderWorkerRunOnce(t *testing.T) {
	t.Parallel()

	reminder := &countingReminder{}
	w := NewReminderWorker(reminder, "0 9 * * *", nil)
	w.RunOnce(context.Background())
	reminder.err = errors.New("store down")
	w.RunOnce(context.Background())
	if reminder.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", reminder.calls)
	}
}

func TestReminderWorkerStart(t *testing.T) {
	t.Parallel()

	if err := NewReminderWorker(&countingReminder{}, "not a cron", nil).Start(context.Background()); err == nil {
		t.Fatalf("expected invalid expression error")
	}
	if err := NewReminderWorker(&countingReminder{}, "", nil).Start(context.Background()); err != nil {
		t.Fatalf("empty schedule should disable, got %v", err)
	}
	w := NewReminderWorker(&countingReminder{}, "@every 1h", nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	w.Stop()
}
