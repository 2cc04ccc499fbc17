package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IssueStatus enumerates workflow states for an issue.
type IssueStatus string

const (
	IssueStatusNew            IssueStatus = "new"
	IssueStatusInProgress     IssueStatus = "in_progress"
	IssueStatusAdminCompleted IssueStatus = "admin_completed"
	IssueStatusCompleted      IssueStatus = "completed"
)

// Valid reports whether s is one of the known workflow states.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusNew, IssueStatusInProgress, IssueStatusAdminCompleted, IssueStatusCompleted:
		return true
	}
	return false
}

// CompletionType identifies who signs off an issue.
type CompletionType string

const (
	CompletionAdmin CompletionType = "admin"
	CompletionUser  CompletionType = "user"
)

// Category taxonomy. The order is significant for the rule-based classifier.
const (
	CategorySanitation  = "Sanitation & Waste"
	CategoryWater       = "Water & Drainage"
	CategoryElectricity = "Electricity & Streetlights"
	CategoryRoads       = "Roads & Transport"
	CategoryHealth      = "Public Health & Safety"
	CategoryEnvironment = "Environment & Parks"
	CategoryBuilding    = "Building & Infrastructure"
	CategoryTaxes       = "Taxes & Documentation"
	CategoryEmergency   = "Emergency Services"
	CategoryAnimals     = "Animal Care & Control"
	CategoryOther       = "Other"
)

// Categories lists the full taxonomy, "Other" last.
var Categories = []string{
	CategorySanitation,
	CategoryWater,
	CategoryElectricity,
	CategoryRoads,
	CategoryHealth,
	CategoryEnvironment,
	CategoryBuilding,
	CategoryTaxes,
	CategoryEmergency,
	CategoryAnimals,
	CategoryOther,
}

// IsKnownCategory reports whether name belongs to the taxonomy.
func IsKnownCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// TimestampLayout is the human-readable local time format used on issue records.
const TimestampLayout = "15:04 02-01-2006"

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// Location is an optional GPS fix attached to a report.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Issue is the canonical citizen complaint record.
type Issue struct {
	ID           string
	TicketID     string
	Category     string
	Title        string
	Address      string
	Description  string
	ContentHash  string
	OriginalText string
	Location     *Location
	Language     string
	Photo        string
	Status       IssueStatus
	Users        []string
	IssueCount   int
	ReporterName string

	CreatedAt        string
	UpdatedAt        string
	UpdatedByEmail   string
	InProgressAt     string
	CompletedAt      string
	AdminCompletedAt string
	AdminCompletedBy string
	UserCompletedAt  string
	UserCompletedBy  string
}

// HasReporter reports whether reporter already appears in Users.
func (i *Issue) HasReporter(reporter string) bool {
	for _, u := range i.Users {
		if u == reporter {
			return true
		}
	}
	return false
}

// ComparisonText is the text used when matching new reports against this issue.
func (i *Issue) ComparisonText() string {
	if i.OriginalText != "" {
		return i.OriginalText
	}
	return i.Title + " " + i.Description
}

// Clone returns a deep copy.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	out := *i
	out.Users = append([]string(nil), i.Users...)
	if i.Location != nil {
		loc := *i.Location
		out.Location = &loc
	}
	return &out
}

// Validate checks the fields a store requires before persisting a record.
func (i *Issue) Validate() error {
	var problems []string
	if strings.TrimSpace(i.TicketID) == "" {
		problems = append(problems, "ticketId is required")
	}
	if i.ContentHash == "" {
		problems = append(problems, "contentHash is required")
	}
	if !IsKnownCategory(i.Category) {
		problems = append(problems, fmt.Sprintf("unknown category %q", i.Category))
	}
	if !i.Status.Valid() {
		problems = append(problems, fmt.Sprintf("invalid status %q", i.Status))
	}
	if len(i.Users) == 0 {
		problems = append(problems, "at least one reporter is required")
	}
	if i.IssueCount < 1 {
		problems = append(problems, "issueCount must be positive")
	}
	if len(problems) > 0 {
		return errors.New("invalid issue: " + strings.Join(problems, "; "))
	}
	return nil
}
