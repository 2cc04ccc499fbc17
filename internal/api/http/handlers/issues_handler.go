package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-intake/internal/api/dto"
	"github.com/spec-kit/civic-intake/internal/auth"
	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/service"
	apperrors "github.com/spec-kit/civic-intake/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// IssuesHandler exposes issue intake and workflow endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// Submit POST /issues.
func (h *IssuesHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reporter := strings.TrimSpace(req.Email)
	if reporter == "" {
		reporter = strings.TrimSpace(req.Phone)
	}
	if strings.TrimSpace(req.Text) == "" || reporter == "" {
		return apperrors.NewValidationError("text and email or phone required", nil)
	}

	input := service.SubmitInput{
		Text:         req.Text,
		ReporterID:   reporter,
		ReporterName: req.Name,
		Category:     req.Category,
	}
	if req.Location != nil {
		input.Location = &domain.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude}
	}
	result, err := h.service.Submit(c.UserContext(), input)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.SubmitIssueResponse{
		Issue:   dto.NewIssueResponse(result.Issue, true),
		Created: result.Created,
		Reason:  string(result.Reason),
		Score:   result.Score,
	}})
}

// Get GET /issues/:ticketId.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	issue, err := h.service.Get(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue, true)})
}

// List GET /issues.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	issues, err := h.service.List(c.UserContext(), service.ListFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Reporter: strings.TrimSpace(c.Query("reporter")),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewIssueList(issues),
		"meta": fiber.Map{"page": page, "page_size": pageSize},
	})
}

// UpdateStatus PATCH /issues/:ticketId/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	issue, err := h.service.UpdateStatus(c.UserContext(), c.Params("ticketId"), req.Status, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue, false)})
}

// MarkCompletion POST /issues/:ticketId/completion. Admin marks need the
// admin role; any signed-in account may give the user mark.
func (h *IssuesHandler) MarkCompletion(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CompletionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if domain.CompletionType(req.CompletionType) == domain.CompletionAdmin && principal.Role() != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required for admin completion")
	}
	issue, err := h.service.MarkCompletion(c.UserContext(), c.Params("ticketId"), req.CompletionType, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue, !principal.Role().IsStaff())})
}

// UploadPhoto POST /issues/:ticketId/photo.
func (h *IssuesHandler) UploadPhoto(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	header, err := c.FormFile("photo")
	if err != nil {
		return apperrors.NewValidationError("photo file required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	issue, err := h.service.AttachPhoto(c.UserContext(), c.Params("ticketId"), service.PhotoUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewIssueResponse(issue, !principal.Role().IsStaff())})
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}
