package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/classifier"
	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/events"
	"github.com/spec-kit/civic-intake/internal/observability"
	"github.com/spec-kit/civic-intake/internal/repository"
	"github.com/spec-kit/civic-intake/internal/textproc"
	apperrors "github.com/spec-kit/civic-intake/pkg/util/errorutil"
)

// PhotoStore uploads report photos and returns a public URL.
type PhotoStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// IssueService coordinates issue intake and workflow.
type IssueService struct {
	issues     repository.IssueRepository
	resolver   *Resolver
	classifier classifier.Classifier
	dispatcher events.Dispatcher
	guard      SubmissionGuard
	photos     PhotoStore
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	Classifier classifier.Classifier
	Dispatcher events.Dispatcher
	Guard      SubmissionGuard
	Photos     PhotoStore
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewIssueService constructs the service. The classifier is always wrapped
// with the rule-based fallback.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	guard := deps.Guard
	if guard == nil {
		guard = NewNoopGuard()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		resolver:   NewResolver(deps.IssueRepo),
		classifier: classifier.WithFallback(deps.Classifier, logger),
		dispatcher: deps.Dispatcher,
		guard:      guard,
		photos:     deps.Photos,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// SubmitInput is a citizen report from any channel.
type SubmitInput struct {
	Text         string
	ReporterID   string
	ReporterName string
	Location     *domain.Location
	Category     string
}

// SubmitResult describes what Submit did with a report.
type SubmitResult struct {
	Issue   *domain.Issue
	Created bool
	Reason  MatchReason
	Score   float64
}

// Submit classifies a report and either merges it into a matching issue or
// creates a new one.
func (s *IssueService) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	text := strings.TrimSpace(input.Text)
	reporter := strings.TrimSpace(input.ReporterID)
	if text == "" {
		return nil, apperrors.NewValidationError("issue text is required", nil)
	}
	if reporter == "" {
		return nil, apperrors.NewValidationError("reporter email or phone is required", nil)
	}
	if input.Category != "" && !domain.IsKnownCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{
			"category":   input.Category,
			"categories": domain.Categories,
		})
	}

	analysis, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.logger.Warn("classification failed, using rule-based result", zap.Error(err))
		analysis = classifier.Fallback(text)
	}
	category := analysis.Category
	if input.Category != "" {
		category = input.Category
	}

	hash := textproc.Fingerprint(text, input.Location)
	release, err := s.guard.Acquire(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer release()

	resolution, err := s.resolver.Resolve(ctx, SubmitReport{
		Text:       text,
		ReporterID: reporter,
		Location:   input.Location,
		Category:   category,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve duplicates: %w", err)
	}

	if resolution.Matched() {
		return s.merge(ctx, resolution, reporter)
	}

	now := s.now()
	stamp := domain.FormatTimestamp(now)
	issue := &domain.Issue{
		ID:           uuid.NewString(),
		TicketID:     generateTicketID(now),
		Category:     category,
		Title:        analysis.Title,
		Address:      analysis.Address,
		Description:  analysis.Description,
		ContentHash:  resolution.ContentHash,
		OriginalText: text,
		Location:     input.Location,
		Language:     textproc.DetectLanguage(text),
		Status:       domain.IssueStatusNew,
		Users:        []string{reporter},
		IssueCount:   1,
		ReporterName: strings.TrimSpace(input.ReporterName),
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
	}

	created, err := s.issues.Insert(ctx, issue)
	if errors.Is(err, repository.ErrDuplicateHash) {
		// Lost the race to a concurrent identical report: merge into the winner.
		winner, findErr := s.issues.FindByHash(ctx, resolution.ContentHash)
		if findErr != nil {
			return nil, fmt.Errorf("load winning issue: %w", findErr)
		}
		return s.merge(ctx, Resolution{Issue: winner, Reason: ReasonExactHash, Score: 1}, reporter)
	}
	if err != nil {
		return nil, fmt.Errorf("insert issue: %w", err)
	}

	s.metrics.RecordResolution(string(ReasonNone))
	s.logger.Info("issue created",
		zap.String("ticket_id", created.TicketID),
		zap.String("category", created.Category))
	s.publishEvent(ctx, events.New(events.EventIssueCreated, created, events.Actor{Email: reporter}, nil))
	return &SubmitResult{Issue: created, Created: true, Reason: ReasonNone}, nil
}

func (s *IssueService) merge(ctx context.Context, resolution Resolution, reporter string) (*SubmitResult, error) {
	merged, err := s.issues.Update(ctx, resolution.Issue.ID, repository.IssuePatch{
		AddReporter:    reporter,
		IncrementCount: true,
	})
	if err != nil {
		return nil, fmt.Errorf("merge into %s: %w", resolution.Issue.TicketID, err)
	}

	s.metrics.RecordResolution(string(resolution.Reason))
	s.logger.Info("report merged into existing issue",
		zap.String("ticket_id", merged.TicketID),
		zap.String("reason", string(resolution.Reason)),
		zap.Float64("score", resolution.Score),
		zap.Int("issue_count", merged.IssueCount))
	s.publishEvent(ctx, events.New(events.EventIssueMerged, merged, events.Actor{Email: reporter}, events.IssueMergedPayload{
		Reporter: reporter,
		Reason:   string(resolution.Reason),
		Score:    resolution.Score,
	}))
	return &SubmitResult{Issue: merged, Reason: resolution.Reason, Score: resolution.Score}, nil
}

// Get returns an issue by ticket ID.
func (s *IssueService) Get(ctx context.Context, ticketID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByTicketID(ctx, strings.TrimSpace(ticketID))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("issue", map[string]any{"ticket_id": ticketID})
	}
	return issue, err
}

// ListFilter describes staff listing parameters.
type ListFilter struct {
	Status   string
	Category string
	Reporter string
	Limit    int
	Offset   int
}

// List returns issues newest first.
func (s *IssueService) List(ctx context.Context, filter ListFilter) ([]*domain.Issue, error) {
	repoFilter := repository.IssueFilter{
		Category: filter.Category,
		Reporter: filter.Reporter,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if filter.Status != "" {
		status := domain.IssueStatus(filter.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": filter.Status})
		}
		repoFilter.Status = status
	}
	if filter.Category != "" && !domain.IsKnownCategory(filter.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": filter.Category})
	}
	return s.issues.List(ctx, repoFilter)
}

// NormalizeStatus maps status-update input to a state. Only "in progress" is
// rewritten; "completed" and anything unknown are rejected.
func NormalizeStatus(raw string) (domain.IssueStatus, error) {
	switch raw {
	case "new":
		return domain.IssueStatusNew, nil
	case "in_progress", "in progress":
		return domain.IssueStatusInProgress, nil
	case "admin_completed":
		return domain.IssueStatusAdminCompleted, nil
	case "completed":
		return "", apperrors.NewValidationError("status completed requires both admin and user completion", nil)
	}
	return "", apperrors.NewValidationError("invalid status", map[string]any{
		"status":  raw,
		"allowed": []string{"new", "in_progress", "in progress", "admin_completed"},
	})
}

var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.IssueStatusNew:            {domain.IssueStatusNew, domain.IssueStatusInProgress},
	domain.IssueStatusInProgress:     {domain.IssueStatusInProgress, domain.IssueStatusAdminCompleted},
	domain.IssueStatusAdminCompleted: {domain.IssueStatusAdminCompleted},
	domain.IssueStatusCompleted:      {},
}

func isValidTransition(current, next domain.IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// UpdateStatus applies a staff status change.
func (s *IssueService) UpdateStatus(ctx context.Context, ticketID, rawStatus string, actor events.Actor) (*domain.Issue, error) {
	next, err := NormalizeStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	issue, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(issue.Status, next) {
		return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": issue.Status,
			"to":   next,
		})
	}

	stamp := domain.FormatTimestamp(s.now())
	email := actor.Email
	patch := repository.IssuePatch{
		Status:         &next,
		UpdatedAt:      &stamp,
		UpdatedByEmail: &email,
	}
	if next != issue.Status {
		switch next {
		case domain.IssueStatusInProgress:
			patch.InProgressAt = &stamp
		case domain.IssueStatusAdminCompleted:
			patch.AdminCompletedAt = &stamp
			patch.AdminCompletedBy = &email
		}
	}

	updated, err := s.issues.Update(ctx, issue.ID, patch)
	if err != nil {
		return nil, err
	}
	if next != issue.Status {
		s.publishEvent(ctx, events.New(events.EventStatusChanged, updated, actor, events.StatusChangedPayload{
			OldStatus: issue.Status,
			NewStatus: next,
		}))
	}
	return updated, nil
}

// MarkCompletion records an admin or user sign-off. A user mark comes from a
// non-staff reporter and needs an earlier admin mark; once both exist the
// issue is completed.
func (s *IssueService) MarkCompletion(ctx context.Context, ticketID, rawType string, actor events.Actor) (*domain.Issue, error) {
	completionType := domain.CompletionType(strings.TrimSpace(rawType))
	if completionType != domain.CompletionAdmin && completionType != domain.CompletionUser {
		return nil, apperrors.NewValidationError("completion type must be admin or user", map[string]any{"completion_type": rawType})
	}
	issue, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if completionType == domain.CompletionUser {
		if err := checkReporterSignOff(issue, actor); err != nil {
			return nil, err
		}
	}
	if completionType == domain.CompletionUser && issue.AdminCompletedAt == "" {
		return nil, apperrors.NewValidationError("admin must mark the issue completed before the reporter can confirm", map[string]any{
			"ticket_id": issue.TicketID,
		})
	}

	stamp := domain.FormatTimestamp(s.now())
	email := actor.Email
	patch := repository.IssuePatch{
		UpdatedAt:      &stamp,
		UpdatedByEmail: &email,
	}
	adminDone := issue.AdminCompletedAt != ""
	userDone := issue.UserCompletedAt != ""

	switch completionType {
	case domain.CompletionAdmin:
		patch.AdminCompletedAt = &stamp
		patch.AdminCompletedBy = &email
		adminDone = true
		if issue.Status != domain.IssueStatusCompleted {
			status := domain.IssueStatusAdminCompleted
			patch.Status = &status
		}
	case domain.CompletionUser:
		patch.UserCompletedAt = &stamp
		patch.UserCompletedBy = &email
		userDone = true
	}
	if adminDone && userDone {
		status := domain.IssueStatusCompleted
		patch.Status = &status
		patch.CompletedAt = &stamp
	}

	updated, err := s.issues.Update(ctx, issue.ID, patch)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.New(events.EventCompletionMarked, updated, actor, events.CompletionMarkedPayload{
		CompletionType: completionType,
		Completed:      updated.Status == domain.IssueStatusCompleted,
	}))
	if updated.Status != issue.Status {
		s.publishEvent(ctx, events.New(events.EventStatusChanged, updated, actor, events.StatusChangedPayload{
			OldStatus: issue.Status,
			NewStatus: updated.Status,
		}))
	}
	return updated, nil
}

// checkReporterSignOff keeps the two marks with two parties: the user mark
// belongs to someone who reported the issue and never to staff.
func checkReporterSignOff(issue *domain.Issue, actor events.Actor) error {
	if actor.Role.IsStaff() {
		return apperrors.NewForbidden("staff accounts cannot give the reporter sign-off")
	}
	for _, reporter := range issue.Users {
		if strings.EqualFold(reporter, actor.Email) {
			return nil
		}
	}
	return apperrors.NewForbidden("only a reporter of this issue can confirm its resolution")
}

// PhotoUpload is a file attached to an existing issue.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachPhoto uploads a photo and stores its URL on the issue.
func (s *IssueService) AttachPhoto(ctx context.Context, ticketID string, upload PhotoUpload, actor events.Actor) (*domain.Issue, error) {
	if s.photos == nil {
		return nil, apperrors.NewUnavailable("photo uploads are not configured")
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, apperrors.NewValidationError("photo must be an image", map[string]any{"content_type": upload.ContentType})
	}
	issue, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("issues/%s/%s%s", issue.TicketID, uuid.NewString(), strings.ToLower(path.Ext(upload.FileName)))
	url, err := s.photos.Upload(ctx, key, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	stamp := domain.FormatTimestamp(s.now())
	email := actor.Email
	return s.issues.Update(ctx, issue.ID, repository.IssuePatch{
		Photo:          &url,
		UpdatedAt:      &stamp,
		UpdatedByEmail: &email,
	})
}

// PendingConfirmation lists issues waiting for the reporter's sign-off.
func (s *IssueService) PendingConfirmation(ctx context.Context) ([]*domain.Issue, error) {
	return s.issues.List(ctx, repository.IssueFilter{Status: domain.IssueStatusAdminCompleted})
}

// RemindPending publishes a reminder for every issue awaiting user sign-off.
func (s *IssueService) RemindPending(ctx context.Context) (int, error) {
	pending, err := s.PendingConfirmation(ctx)
	if err != nil {
		return 0, err
	}
	for _, issue := range pending {
		s.publishEvent(ctx, events.New(events.EventCompletionReminder, issue, events.Actor{}, nil))
	}
	return len(pending), nil
}

// Ping checks the issue store.
func (s *IssueService) Ping(ctx context.Context) error {
	return s.issues.Ping(ctx)
}

func generateTicketID(now time.Time) string {
	return "TKT-" + now.Format("02012006") + "-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
