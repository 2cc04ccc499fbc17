package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-intake/internal/domain"
)

// IssueFilter captures listing parameters. Zero values mean "any".
type IssueFilter struct {
	Status   domain.IssueStatus
	Category string
	Reporter string
	Limit    int
	Offset   int
}

// IssuePatch is an atomic partial update. Nil pointers leave fields untouched.
// AddReporter appends to Users only when absent; IncrementCount always bumps
// IssueCount by one.
type IssuePatch struct {
	Status           *domain.IssueStatus
	UpdatedAt        *string
	UpdatedByEmail   *string
	InProgressAt     *string
	CompletedAt      *string
	AdminCompletedAt *string
	AdminCompletedBy *string
	UserCompletedAt  *string
	UserCompletedBy  *string
	Photo            *string
	AddReporter      string
	IncrementCount   bool
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p.Status == nil && p.UpdatedAt == nil && p.UpdatedByEmail == nil &&
		p.InProgressAt == nil && p.CompletedAt == nil && p.AdminCompletedAt == nil &&
		p.AdminCompletedBy == nil && p.UserCompletedAt == nil && p.UserCompletedBy == nil &&
		p.Photo == nil && p.AddReporter == "" && !p.IncrementCount
}

// Apply mutates issue in place.
func (p IssuePatch) Apply(issue *domain.Issue) {
	if p.Status != nil {
		issue.Status = *p.Status
	}
	setString(&issue.UpdatedAt, p.UpdatedAt)
	setString(&issue.UpdatedByEmail, p.UpdatedByEmail)
	setString(&issue.InProgressAt, p.InProgressAt)
	setString(&issue.CompletedAt, p.CompletedAt)
	setString(&issue.AdminCompletedAt, p.AdminCompletedAt)
	setString(&issue.AdminCompletedBy, p.AdminCompletedBy)
	setString(&issue.UserCompletedAt, p.UserCompletedAt)
	setString(&issue.UserCompletedBy, p.UserCompletedBy)
	setString(&issue.Photo, p.Photo)
	if p.AddReporter != "" && !issue.HasReporter(p.AddReporter) {
		issue.Users = append(issue.Users, p.AddReporter)
	}
	if p.IncrementCount {
		issue.IssueCount++
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// IssueRepository persists issue records.
type IssueRepository interface {
	FindByHash(ctx context.Context, hash string) (*domain.Issue, error)
	ScanByCategory(ctx context.Context, category string) ([]*domain.Issue, error)
	Insert(ctx context.Context, issue *domain.Issue) (*domain.Issue, error)
	Update(ctx context.Context, id string, patch IssuePatch) (*domain.Issue, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]*domain.Issue, error)
	Ping(ctx context.Context) error
}

const issueColumns = `id, ticket_id, category, title, address, description, content_hash, original_text,
               latitude, longitude, language, photo, status, users, issue_count, reporter_name,
               created_at, updated_at, updated_by_email, in_progress_at, completed_at,
               admin_completed_at, admin_completed_by, user_completed_at, user_completed_by`

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository returns a Postgres-backed implementation.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

func (r *issueRepository) FindByHash(ctx context.Context, hash string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE content_hash=$1`
	return r.fetchSingle(ctx, query, hash)
}

func (r *issueRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *issueRepository) ScanByCategory(ctx context.Context, category string) ([]*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE category=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) Insert(ctx context.Context, issue *domain.Issue) (*domain.Issue, error) {
	issue, err := prepareInsert(issue)
	if err != nil {
		return nil, err
	}
	lat, lon := locationColumns(issue.Location)
	const query = `
        INSERT INTO issues (id, ticket_id, category, title, address, description, content_hash, original_text,
            latitude, longitude, language, photo, status, users, issue_count, reporter_name,
            created_at, updated_at, updated_by_email, in_progress_at, completed_at,
            admin_completed_at, admin_completed_by, user_completed_at, user_completed_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
        ON CONFLICT (content_hash) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.TicketID,
		issue.Category,
		issue.Title,
		issue.Address,
		issue.Description,
		issue.ContentHash,
		issue.OriginalText,
		lat,
		lon,
		issue.Language,
		issue.Photo,
		string(issue.Status),
		issue.Users,
		issue.IssueCount,
		issue.ReporterName,
		issue.CreatedAt,
		issue.UpdatedAt,
		issue.UpdatedByEmail,
		issue.InProgressAt,
		issue.CompletedAt,
		issue.AdminCompletedAt,
		issue.AdminCompletedBy,
		issue.UserCompletedAt,
		issue.UserCompletedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrDuplicateHash
	}
	return issue, nil
}

// prepareInsert validates issue and returns a copy with a store-assigned ID.
func prepareInsert(issue *domain.Issue) (*domain.Issue, error) {
	if issue == nil {
		return nil, errors.New("nil issue")
	}
	if err := issue.Validate(); err != nil {
		return nil, err
	}
	rec := issue.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return rec, nil
}

func (r *issueRepository) Update(ctx context.Context, id string, patch IssuePatch) (*domain.Issue, error) {
	if patch.Empty() {
		return r.fetchSingle(ctx, `SELECT `+issueColumns+` FROM issues WHERE id=$1`, id)
	}

	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	optional := []struct {
		column string
		value  *string
	}{
		{"updated_at", patch.UpdatedAt},
		{"updated_by_email", patch.UpdatedByEmail},
		{"in_progress_at", patch.InProgressAt},
		{"completed_at", patch.CompletedAt},
		{"admin_completed_at", patch.AdminCompletedAt},
		{"admin_completed_by", patch.AdminCompletedBy},
		{"user_completed_at", patch.UserCompletedAt},
		{"user_completed_by", patch.UserCompletedBy},
		{"photo", patch.Photo},
	}
	for _, field := range optional {
		if field.value != nil {
			set(field.column, *field.value)
		}
	}
	if patch.AddReporter != "" {
		args = append(args, patch.AddReporter)
		n := len(args)
		sets = append(sets, fmt.Sprintf("users = CASE WHEN $%d::text = ANY(users) THEN users ELSE array_append(users, $%d::text) END", n, n))
	}
	if patch.IncrementCount {
		sets = append(sets, "issue_count = issue_count + 1")
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE issues SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), issueColumns)
	return r.fetchSingle(ctx, query, args...)
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]*domain.Issue, error) {
	base := `SELECT ` + issueColumns + ` FROM issues`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Reporter != "" {
		args = append(args, filter.Reporter)
		clauses = append(clauses, fmt.Sprintf("$%d::text = ANY(users)", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY seq DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *issueRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Issue, error) {
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return issue, err
}

func scanIssues(rows pgx.Rows) ([]*domain.Issue, error) {
	var result []*domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var (
		issue    domain.Issue
		lat, lon *float64
		status   string
	)
	if err := row.Scan(
		&issue.ID,
		&issue.TicketID,
		&issue.Category,
		&issue.Title,
		&issue.Address,
		&issue.Description,
		&issue.ContentHash,
		&issue.OriginalText,
		&lat,
		&lon,
		&issue.Language,
		&issue.Photo,
		&status,
		&issue.Users,
		&issue.IssueCount,
		&issue.ReporterName,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.UpdatedByEmail,
		&issue.InProgressAt,
		&issue.CompletedAt,
		&issue.AdminCompletedAt,
		&issue.AdminCompletedBy,
		&issue.UserCompletedAt,
		&issue.UserCompletedBy,
	); err != nil {
		return nil, err
	}
	issue.Status = domain.IssueStatus(status)
	issue.Location = locationFromColumns(lat, lon)
	return &issue, nil
}

func locationColumns(loc *domain.Location) (*float64, *float64) {
	if loc == nil {
		return nil, nil
	}
	lat, lon := loc.Latitude, loc.Longitude
	return &lat, &lon
}

func locationFromColumns(lat, lon *float64) *domain.Location {
	if lat == nil || lon == nil {
		return nil
	}
	return &domain.Location{Latitude: *lat, Longitude: *lon}
}
