package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/events"
	"github.com/spec-kit/civic-intake/internal/repository"
	apperrors "github.com/spec-kit/civic-intake/pkg/util/errorutil"
)

// SMSOutcomeKind says how an inbound SMS was handled.
type SMSOutcomeKind string

const (
	SMSSubmitted SMSOutcomeKind = "submitted"
	SMSConfirmed SMSOutcomeKind = "confirmed"
	SMSLookup    SMSOutcomeKind = "lookup"
	SMSNotFound  SMSOutcomeKind = "lookup_not_found"
)

// SMSMessage is a normalized inbound message.
type SMSMessage struct {
	Phone     string
	Text      string
	MessageID string
}

// SMSOutcome reports what HandleSMS did.
type SMSOutcome struct {
	Kind      SMSOutcomeKind
	Submit    *SubmitResult
	Confirmed []*domain.Issue
	Issue     *domain.Issue
	TicketID  string
}

var ticketIDPattern = regexp.MustCompile(`(?i)^TKT-\d{8}-[0-9a-f]{8}$`)

var affirmativeReplies = map[string]struct{}{
	"yes": {}, "y": {}, "haan": {}, "ha": {}, "हाँ": {}, "हां": {},
}

// IsAffirmative reports whether an SMS body confirms a resolution.
func IsAffirmative(text string) bool {
	normalized := strings.Trim(strings.ToLower(strings.TrimSpace(text)), ".!")
	_, ok := affirmativeReplies[normalized]
	return ok
}

// HandleSMS routes an inbound message: a confirmation reply signs off every
// admin-completed issue the phone reported, a bare ticket ID requests its
// details (an unknown ID gets a not-found reply), anything else is submitted
// as a report.
func (s *IssueService) HandleSMS(ctx context.Context, msg SMSMessage) (*SMSOutcome, error) {
	phone := strings.TrimSpace(msg.Phone)
	text := strings.TrimSpace(msg.Text)
	if phone == "" || text == "" {
		return nil, apperrors.NewValidationError("sms requires sender and text", map[string]any{"message_id": msg.MessageID})
	}
	actor := events.Actor{Email: phone, Role: domain.RoleCitizen}

	if IsAffirmative(text) {
		pending, err := s.issues.List(ctx, awaitingConfirmationBy(phone))
		if err != nil {
			return nil, err
		}
		outcome := &SMSOutcome{Kind: SMSConfirmed}
		for _, issue := range pending {
			updated, err := s.MarkCompletion(ctx, issue.TicketID, string(domain.CompletionUser), actor)
			if err != nil {
				s.logger.Warn("sms confirmation failed", zap.String("ticket_id", issue.TicketID), zap.Error(err))
				continue
			}
			outcome.Confirmed = append(outcome.Confirmed, updated)
		}
		return outcome, nil
	}

	if ticketIDPattern.MatchString(text) {
		ticketID := strings.ToUpper(text)
		issue, err := s.Get(ctx, ticketID)
		if apperrors.IsCode(err, "NOT_FOUND") {
			event := events.New(events.EventDetailsRequested, nil, actor, events.DetailsRequestedPayload{TicketID: ticketID})
			event.TicketID = ticketID
			s.publishEvent(ctx, event)
			return &SMSOutcome{Kind: SMSNotFound, TicketID: ticketID}, nil
		}
		if err != nil {
			return nil, err
		}
		s.publishEvent(ctx, events.New(events.EventDetailsRequested, issue, actor, nil))
		return &SMSOutcome{Kind: SMSLookup, Issue: issue, TicketID: issue.TicketID}, nil
	}

	result, err := s.Submit(ctx, SubmitInput{Text: text, ReporterID: phone})
	if err != nil {
		return nil, err
	}
	return &SMSOutcome{Kind: SMSSubmitted, Submit: result}, nil
}

func awaitingConfirmationBy(reporter string) repository.IssueFilter {
	return repository.IssueFilter{Status: domain.IssueStatusAdminCompleted, Reporter: reporter}
}
