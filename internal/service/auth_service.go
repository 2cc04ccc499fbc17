package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/auth"
	"github.com/spec-kit/civic-intake/internal/config"
	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/repository"
	apperrors "github.com/spec-kit/civic-intake/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	logger      *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Logger         *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		tokenMgr:    auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:  cfg.BcryptCost,
		logger:      logger,
	}
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Name         string
	Email        string
	Phone        string
	Password     string
	Role         domain.Role
	DepartmentID string
}

// AuthResult carries an account and its access token.
type AuthResult struct {
	Account   *domain.UserAccount
	Token     string
	ExpiresAt time.Time
}

// Register creates a citizen account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Role = domain.RoleCitizen
	input.DepartmentID = ""
	account, err := s.CreateAccount(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.issue(account)
}

// CreateAccount stores a new account of any role. Workers must belong to a
// known department.
func (s *AuthService) CreateAccount(ctx context.Context, input RegisterInput) (*domain.UserAccount, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid"
	}
	if len(input.Password) < minPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if input.Role == "" {
		input.Role = domain.RoleCitizen
	}
	if !input.Role.Valid() {
		details["role"] = "must be citizen, worker or admin"
	}
	if input.Role == domain.RoleWorker && strings.TrimSpace(input.DepartmentID) == "" {
		details["department_id"] = "required for workers"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid account", details)
	}
	if input.DepartmentID != "" {
		if err := s.checkDepartment(ctx, input.DepartmentID); err != nil {
			return nil, err
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account := &domain.UserAccount{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}
	if err := s.users.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, err
	}
	s.logger.Info("account created", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))
	return account, nil
}

// Login authenticates an account by e-mail and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !account.Active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(account)
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	_, err := s.CreateAccount(ctx, RegisterInput{Name: "Administrator", Email: email, Password: password, Role: domain.RoleAdmin})
	return err
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(account *domain.UserAccount) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(account)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Account: account, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) checkDepartment(ctx context.Context, id string) error {
	if s.departments == nil {
		return nil
	}
	departments, err := s.departments.List(ctx)
	if err != nil {
		return err
	}
	if len(departments) == 0 {
		return nil
	}
	for _, dept := range departments {
		if dept.ID == id {
			return nil
		}
	}
	return apperrors.NewValidationError("unknown department", map[string]any{"department_id": id})
}
