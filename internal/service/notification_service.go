package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/events"
	"github.com/spec-kit/civic-intake/internal/notify"
	"github.com/spec-kit/civic-intake/internal/repository"
)

// NotificationService turns domain events into SMS and e-mail messages.
type NotificationService struct {
	dispatcher  events.Dispatcher
	sms         notify.SMSSender
	email       notify.EmailSender
	departments repository.DepartmentRepository
	logger      *zap.Logger
}

// NotificationDependencies bundles the outbound channels.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	SMS         notify.SMSSender
	Email       notify.EmailSender
	Departments repository.DepartmentRepository
	Logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:  deps.Dispatcher,
		sms:         deps.SMS,
		email:       deps.Email,
		departments: deps.Departments,
		logger:      logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueCreated, n.handleIssueCreated)
	n.dispatcher.Subscribe(events.EventIssueMerged, n.handleIssueMerged)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventCompletionMarked, n.handleCompletionMarked)
	n.dispatcher.Subscribe(events.EventCompletionReminder, n.handleCompletionReminder)
	n.dispatcher.Subscribe(events.EventDetailsRequested, n.handleDetailsRequested)
}

func (n *NotificationService) handleIssueCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueCreated", zap.String("ticket_id", event.TicketID))
	issue := event.Issue
	if issue == nil {
		return nil
	}
	if len(issue.Users) > 0 {
		n.deliver(ctx, issue.Users[0], "Issue registered: "+issue.TicketID, notify.ConfirmationMessage(issue, notify.Bilingual(issue)))
	}
	n.notifyDepartments(ctx, issue)
	return nil
}

func (n *NotificationService) handleIssueMerged(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueMerged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	if event.Issue == nil {
		return nil
	}
	reporter := event.Actor.Email
	if payload, ok := event.Payload.(events.IssueMergedPayload); ok && payload.Reporter != "" {
		reporter = payload.Reporter
	}
	n.deliver(ctx, reporter, "Issue already reported: "+event.TicketID, notify.MergedMessage(event.Issue, notify.Bilingual(event.Issue)))
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("StatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	issue := event.Issue
	if issue == nil {
		return nil
	}
	newStatus := issue.Status
	if payload, ok := event.Payload.(events.StatusChangedPayload); ok {
		newStatus = payload.NewStatus
	}
	message := notify.StatusUpdateMessage(issue, newStatus, notify.Bilingual(issue))
	for _, reporter := range issue.Users {
		n.deliver(ctx, reporter, "Status update: "+issue.TicketID, message)
	}
	return nil
}

func (n *NotificationService) handleCompletionMarked(_ context.Context, event events.Event) error {
	n.logger.Info("CompletionMarked",
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.Email),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCompletionReminder(ctx context.Context, event events.Event) error {
	n.logger.Info("CompletionReminder", zap.String("ticket_id", event.TicketID))
	issue := event.Issue
	if issue == nil {
		return nil
	}
	message := notify.ReminderMessage(issue, notify.Bilingual(issue))
	for _, reporter := range issue.Users {
		n.deliver(ctx, reporter, "Please confirm: "+issue.TicketID, message)
	}
	return nil
}

func (n *NotificationService) handleDetailsRequested(ctx context.Context, event events.Event) error {
	n.logger.Info("DetailsRequested", zap.String("ticket_id", event.TicketID), zap.String("actor", event.Actor.Email))
	if event.Actor.Email == "" {
		return nil
	}
	if event.Issue == nil {
		n.deliver(ctx, event.Actor.Email, "Ticket not found: "+event.TicketID, notify.TicketNotFoundMessage(event.TicketID))
		return nil
	}
	n.deliver(ctx, event.Actor.Email, "Issue details: "+event.TicketID, notify.DetailsMessage(event.Issue, notify.Bilingual(event.Issue)))
	return nil
}

func (n *NotificationService) notifyDepartments(ctx context.Context, issue *domain.Issue) {
	if n.departments == nil {
		return
	}
	departments, err := n.departments.ForCategory(ctx, issue.Category)
	if err != nil {
		n.logger.Warn("department lookup failed", zap.String("category", issue.Category), zap.Error(err))
		return
	}
	message := notify.DepartmentMessage(issue)
	for _, dept := range departments {
		if dept.Email != "" {
			n.deliver(ctx, dept.Email, "New issue: "+issue.TicketID, message)
		}
		if dept.Phone != "" {
			n.deliver(ctx, dept.Phone, "", message)
		}
	}
}

// deliver routes by contact shape: anything with an @ is e-mailed, the rest
// goes out as SMS. Failures are logged and swallowed.
func (n *NotificationService) deliver(ctx context.Context, contact, subject, body string) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return
	}
	var err error
	channel := "sms"
	if strings.Contains(contact, "@") {
		channel = "email"
		if n.email == nil {
			return
		}
		err = n.email.Send(ctx, contact, subject, body)
	} else {
		if n.sms == nil {
			return
		}
		err = n.sms.Send(ctx, contact, body)
	}
	if err != nil {
		n.logger.Warn("notification delivery failed",
			zap.String("channel", channel),
			zap.String("to", contact),
			zap.Error(err))
	}
}
