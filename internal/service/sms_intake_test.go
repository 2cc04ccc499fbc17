package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/events"
	apperrors "github.com/spec-kit/civic-intake/pkg/util/errorutil"
)

func TestIsAffirmative(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"YES", " yes. ", "y", "Haan", "हाँ", "हां!"} {
		if !IsAffirmative(text) {
			t.Fatalf("%q should be affirmative", text)
		}
	}
	for _, text := range []string{"no", "yes please", "", "ok"} {
		if IsAffirmative(text) {
			t.Fatalf("%q should not be affirmative", text)
		}
	}
}

func TestHandleSMSSubmitAndConfirm(t *testing.T) {
	t.Parallel()

	svc, dispatcher := newTestService(t, nil)
	ctx := context.Background()
	phone := "+919876543210"

	outcome, err := svc.HandleSMS(ctx, SMSMessage{Phone: phone, Text: "सेक्टर 5 में कचरा नहीं उठाया गया"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Kind != SMSSubmitted || !outcome.Submit.Created {
		t.Fatalf("expected new submission, got %+v", outcome)
	}
	issue := outcome.Submit.Issue
	if issue.Language != "hi" || issue.Category != domain.CategorySanitation || issue.Address != "Sector 5" {
		t.Fatalf("unexpected issue %+v", issue)
	}

	outcome, err = svc.HandleSMS(ctx, SMSMessage{Phone: phone, Text: "YES"})
	if err != nil {
		t.Fatalf("early confirmation: %v", err)
	}
	if outcome.Kind != SMSConfirmed || len(outcome.Confirmed) != 0 {
		t.Fatalf("nothing awaits confirmation yet, got %+v", outcome)
	}

	if _, err := svc.UpdateStatus(ctx, issue.TicketID, "in_progress", adminActor); err != nil {
		t.Fatalf("in progress: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, issue.TicketID, "admin_completed", adminActor); err != nil {
		t.Fatalf("admin completed: %v", err)
	}

	outcome, err = svc.HandleSMS(ctx, SMSMessage{Phone: phone, Text: "हाँ"})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(outcome.Confirmed) != 1 {
		t.Fatalf("expected one confirmed issue, got %+v", outcome)
	}
	done := outcome.Confirmed[0]
	if done.Status != domain.IssueStatusCompleted || done.UserCompletedBy != phone {
		t.Fatalf("unexpected record %+v", done)
	}
	if dispatcher.count(events.EventCompletionMarked) != 1 {
		t.Fatalf("unexpected events %v", dispatcher.types())
	}
}

func TestHandleSMSTicketLookup(t *testing.T) {
	t.Parallel()

	svc, dispatcher := newTestService(t, nil)
	ctx := context.Background()
	created := submit(t, svc, "Streetlight not working", "+911111111111", "")

	outcome, err := svc.HandleSMS(ctx, SMSMessage{Phone: "+912222222222", Text: strings.ToLower(created.Issue.TicketID)})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if outcome.Kind != SMSLookup || outcome.Issue.TicketID != created.Issue.TicketID {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if dispatcher.count(events.EventDetailsRequested) != 1 {
		t.Fatalf("expected details event, got %v", dispatcher.types())
	}

	outcome, err = svc.HandleSMS(ctx, SMSMessage{Phone: "+913333333333", Text: "tkt-01012025-abcdef12"})
	if err != nil {
		t.Fatalf("unknown ticket must not fail the webhook: %v", err)
	}
	if outcome.Kind != SMSNotFound || outcome.TicketID != "TKT-01012025-ABCDEF12" || outcome.Issue != nil {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if dispatcher.count(events.EventDetailsRequested) != 2 {
		t.Fatalf("expected a not-found reply event, got %v", dispatcher.types())
	}
	if _, err := svc.HandleSMS(ctx, SMSMessage{Phone: "", Text: "hello"}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
