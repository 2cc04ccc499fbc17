package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/spec-kit/civic-intake/internal/domain"
)

type sqliteIssueRepository struct {
	db *sql.DB
}

// NewSQLiteIssueRepository returns a store backed by a single SQLite file.
// Users are kept as a JSON array.
func NewSQLiteIssueRepository(db *sql.DB) IssueRepository {
	return &sqliteIssueRepository{db: db}
}

func (r *sqliteIssueRepository) FindByHash(ctx context.Context, hash string) (*domain.Issue, error) {
	return r.fetchSingle(ctx, r.db, `SELECT `+issueColumns+` FROM issues WHERE content_hash = ?`, hash)
}

func (r *sqliteIssueRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Issue, error) {
	return r.fetchSingle(ctx, r.db, `SELECT `+issueColumns+` FROM issues WHERE ticket_id = ?`, ticketID)
}

func (r *sqliteIssueRepository) ScanByCategory(ctx context.Context, category string) ([]*domain.Issue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE category = ? ORDER BY seq ASC`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteIssues(rows)
}

func (r *sqliteIssueRepository) Insert(ctx context.Context, issue *domain.Issue) (*domain.Issue, error) {
	rec, err := prepareInsert(issue)
	if err != nil {
		return nil, err
	}
	users, err := json.Marshal(rec.Users)
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	lat, lon := locationColumns(rec.Location)

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO issues (id, ticket_id, category, title, address, description, content_hash, original_text,
			latitude, longitude, language, photo, status, users, issue_count, reporter_name,
			created_at, updated_at, updated_by_email, in_progress_at, completed_at,
			admin_completed_at, admin_completed_by, user_completed_at, user_completed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING`,
		rec.ID, rec.TicketID, rec.Category, rec.Title, rec.Address, rec.Description, rec.ContentHash, rec.OriginalText,
		lat, lon, rec.Language, rec.Photo, string(rec.Status), string(users), rec.IssueCount, rec.ReporterName,
		rec.CreatedAt, rec.UpdatedAt, rec.UpdatedByEmail, rec.InProgressAt, rec.CompletedAt,
		rec.AdminCompletedAt, rec.AdminCompletedBy, rec.UserCompletedAt, rec.UserCompletedBy,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrDuplicateHash
	}
	return rec, nil
}

// Update runs read-modify-write inside a transaction so the reporter set and
// counter change together.
func (r *sqliteIssueRepository) Update(ctx context.Context, id string, patch IssuePatch) (*domain.Issue, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	issue, err := r.fetchSingle(ctx, tx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return issue, nil
	}
	patch.Apply(issue)

	users, err := json.Marshal(issue.Users)
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE issues SET status = ?, users = ?, issue_count = ?, photo = ?,
			updated_at = ?, updated_by_email = ?, in_progress_at = ?, completed_at = ?,
			admin_completed_at = ?, admin_completed_by = ?, user_completed_at = ?, user_completed_by = ?
		WHERE id = ?`,
		string(issue.Status), string(users), issue.IssueCount, issue.Photo,
		issue.UpdatedAt, issue.UpdatedByEmail, issue.InProgressAt, issue.CompletedAt,
		issue.AdminCompletedAt, issue.AdminCompletedBy, issue.UserCompletedAt, issue.UserCompletedBy,
		id,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *sqliteIssueRepository) List(ctx context.Context, filter IssueFilter) ([]*domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Reporter != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(issues.users) WHERE json_each.value = ?)")
		args = append(args, filter.Reporter)
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY seq DESC`, issueColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, max(filter.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteIssues(rows)
}

func (r *sqliteIssueRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type sqlQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *sqliteIssueRepository) fetchSingle(ctx context.Context, q sqlQueryer, query string, args ...any) (*domain.Issue, error) {
	issue, err := scanSQLiteIssue(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return issue, err
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteIssues(rows *sql.Rows) ([]*domain.Issue, error) {
	var result []*domain.Issue
	for rows.Next() {
		issue, err := scanSQLiteIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}

func scanSQLiteIssue(row sqlScanner) (*domain.Issue, error) {
	var (
		issue    domain.Issue
		lat, lon sql.NullFloat64
		status   string
		users    string
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
		&users,
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
	if err := json.Unmarshal([]byte(users), &issue.Users); err != nil {
		return nil, fmt.Errorf("decode users for issue %s: %w", issue.ID, err)
	}
	issue.Status = domain.IssueStatus(status)
	if lat.Valid && lon.Valid {
		issue.Location = &domain.Location{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &issue, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
