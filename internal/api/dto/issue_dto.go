package dto

import (
	"github.com/spec-kit/civic-intake/internal/domain"
)

// LocationPayload is a reported coordinate pair.
type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SubmitIssueRequest is the web-form submission payload. Either email or
// phone identifies the reporter.
type SubmitIssueRequest struct {
	Text     string           `json:"text"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Name     string           `json:"name"`
	Location *LocationPayload `json:"location"`
	Category string           `json:"category"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// CompletionRequest payload.
type CompletionRequest struct {
	CompletionType string `json:"completionType"`
}

// IssueResponse is the wire form of an issue record.
type IssueResponse struct {
	ID               string           `json:"id"`
	TicketID         string           `json:"ticketId"`
	Category         string           `json:"category"`
	Title            string           `json:"title"`
	Address          string           `json:"address"`
	Description      string           `json:"description"`
	OriginalText     string           `json:"originalText,omitempty"`
	Location         *LocationPayload `json:"location,omitempty"`
	Language         string           `json:"language,omitempty"`
	Photo            string           `json:"photo,omitempty"`
	Status           string           `json:"status"`
	Users            []string         `json:"users,omitempty"`
	IssueCount       int              `json:"issueCount"`
	ReporterName     string           `json:"reporterName,omitempty"`
	CreatedAt        string           `json:"createdAt"`
	UpdatedAt        string           `json:"updatedAt,omitempty"`
	UpdatedByEmail   string           `json:"updatedByEmail,omitempty"`
	InProgressAt     string           `json:"inProgressAt,omitempty"`
	CompletedAt      string           `json:"completedAt,omitempty"`
	AdminCompletedAt string           `json:"adminCompletedAt,omitempty"`
	AdminCompletedBy string           `json:"adminCompletedBy,omitempty"`
	UserCompletedAt  string           `json:"userCompletedAt,omitempty"`
	UserCompletedBy  string           `json:"userCompletedBy,omitempty"`
}

// SubmitIssueResponse tells the reporter whether a new ticket was opened.
type SubmitIssueResponse struct {
	Issue   IssueResponse `json:"issue"`
	Created bool          `json:"created"`
	Reason  string        `json:"reason"`
	Score   float64       `json:"score"`
}

// NewIssueResponse renders a record. Public views leave out reporter
// contacts, completion actors and the raw report text.
func NewIssueResponse(issue *domain.Issue, public bool) IssueResponse {
	resp := IssueResponse{
		ID:               issue.ID,
		TicketID:         issue.TicketID,
		Category:         issue.Category,
		Title:            issue.Title,
		Address:          issue.Address,
		Description:      issue.Description,
		OriginalText:     issue.OriginalText,
		Language:         issue.Language,
		Photo:            issue.Photo,
		Status:           string(issue.Status),
		Users:            issue.Users,
		IssueCount:       issue.IssueCount,
		ReporterName:     issue.ReporterName,
		CreatedAt:        issue.CreatedAt,
		UpdatedAt:        issue.UpdatedAt,
		UpdatedByEmail:   issue.UpdatedByEmail,
		InProgressAt:     issue.InProgressAt,
		CompletedAt:      issue.CompletedAt,
		AdminCompletedAt: issue.AdminCompletedAt,
		AdminCompletedBy: issue.AdminCompletedBy,
		UserCompletedAt:  issue.UserCompletedAt,
		UserCompletedBy:  issue.UserCompletedBy,
	}
	if issue.Location != nil {
		resp.Location = &LocationPayload{Latitude: issue.Location.Latitude, Longitude: issue.Location.Longitude}
	}
	if public {
		resp.OriginalText = ""
		resp.Users = nil
		resp.ReporterName = ""
		resp.UpdatedByEmail = ""
		resp.AdminCompletedBy = ""
		resp.UserCompletedBy = ""
	}
	return resp
}

// NewIssueList renders records for staff.
func NewIssueList(issues []*domain.Issue) []IssueResponse {
	items := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		items = append(items, NewIssueResponse(issue, false))
	}
	return items
}
