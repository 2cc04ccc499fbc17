package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-intake/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.UserAccount) error
	GetByID(ctx context.Context, id string) (*domain.UserAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
}

const userColumns = `id, name, email, phone, password_hash, role, department_id, active, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.UserAccount) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO users (id, name, email, phone, password_hash, role, department_id, active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		strings.ToLower(user.Email),
		user.Phone,
		user.PasswordHash,
		string(user.Role),
		user.DepartmentID,
		user.Active,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserAccount, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(email))
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.UserAccount, error) {
	var (
		user domain.UserAccount
		role string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&role,
		&user.DepartmentID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.UserAccount
	byEmail map[string]*domain.UserAccount
}

// NewMemoryUserRepository returns an in-process account store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*domain.UserAccount),
		byEmail: make(map[string]*domain.UserAccount),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.UserAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return ErrConflict
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[email] = &stored
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.UserAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

type sqliteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository returns an account store on a SQLite database.
func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *domain.UserAccount) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, phone, password_hash, role, department_id, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Phone, user.PasswordHash, string(user.Role),
		user.DepartmentID, user.Active, now, now,
	)
	if isSQLiteUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *sqliteUserRepository) GetByID(ctx context.Context, id string) (*domain.UserAccount, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *sqliteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
}

func (r *sqliteUserRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.UserAccount, error) {
	var (
		user domain.UserAccount
		role string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&role,
		&user.DepartmentID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}
