package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/events"
	"github.com/spec-kit/civic-intake/internal/repository"
	"github.com/spec-kit/civic-intake/internal/textproc"
)

var fixedNow = time.Date(2025, time.January, 2, 10, 30, 0, 0, time.Local)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

func (d *recordingDispatcher) count(eventType events.EventType) int {
	n := 0
	for _, t := range d.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T, repo repository.IssueRepository) (*IssueService, *recordingDispatcher) {
	t.Helper()
	if repo == nil {
		repo = repository.NewMemoryIssueRepository()
	}
	dispatcher := &recordingDispatcher{}
	svc := NewIssueService(IssueDependencies{
		IssueRepo:  repo,
		Dispatcher: dispatcher,
		Clock:      func() time.Time { return fixedNow },
	})
	return svc, dispatcher
}

func seedIssue(t *testing.T, repo repository.IssueRepository, text, category, reporter string, loc *domain.Location) *domain.Issue {
	t.Helper()
	issue, err := repo.Insert(context.Background(), &domain.Issue{
		TicketID:     generateTicketID(fixedNow),
		Category:     category,
		Title:        "seeded",
		Description:  "seeded",
		ContentHash:  textproc.Fingerprint(text, loc),
		OriginalText: text,
		Location:     loc,
		Status:       domain.IssueStatusNew,
		Users:        []string{reporter},
		IssueCount:   1,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return issue
}
