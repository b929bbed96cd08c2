package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const msgInvalidCredentials = "Invalid credentials"

// LoginResult carries the new session and the signed cookie value for it.
type LoginResult struct {
	Session *domain.Session
	Token   string
}

// AuthService coordinates admin login and session lifecycle.
type AuthService struct {
	admins      repository.AdminRepository
	departments repository.DepartmentRepository
	sessions    auth.SessionStore
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	logger      *zap.Logger
	now         func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	AdminRepo      repository.AdminRepository
	DepartmentRepo repository.DepartmentRepository
	Sessions       auth.SessionStore
	Tokens         *auth.TokenManager
	BcryptCost     int
	Logger         *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		admins:      deps.AdminRepo,
		departments: deps.DepartmentRepo,
		sessions:    deps.Sessions,
		tokenMgr:    deps.Tokens,
		bcryptCost:  deps.BcryptCost,
		logger:      logger,
		now:         time.Now,
	}
}

// Login verifies admin credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			auth.BurnCompare(password)
			return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, err
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		s.logger.Info("admin login rejected", zap.String("username", username))
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}

	now := s.now().UTC()
	session := &domain.Session{
		ID:             uuid.NewString(),
		AdminID:        admin.ID,
		Username:       admin.Username,
		DepartmentName: admin.DepartmentName,
		IssuedAt:       now,
		ExpiresAt:      now.Add(s.tokenMgr.TTL()),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	token, err := s.tokenMgr.GenerateToken(session)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, fmt.Errorf("sign session: %w", err)
	}
	s.logger.Info("admin logged in", zap.String("username", admin.Username), zap.Int64("admin_id", admin.ID))
	return &LoginResult{Session: session, Token: token}, nil
}

// Logout revokes the session. Unknown sessions are ignored.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutToken revokes the session named by a signed cookie value. Tokens that do not
// verify are ignored since they cannot name a live session.
func (s *AuthService) LogoutToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil
	}
	return s.Logout(ctx, claims.SessionID)
}

// CurrentAdmin reloads the admin behind a session so renamed or removed admins are seen.
func (s *AuthService) CurrentAdmin(ctx context.Context, session *domain.Session) (*domain.Admin, error) {
	if session == nil {
		return nil, apperrors.NewAuthRequired("")
	}
	admin, err := s.admins.GetByID(ctx, session.AdminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = s.sessions.Delete(ctx, session.ID)
			return nil, apperrors.NewAuthRequired("Admin session is not active")
		}
		return nil, err
	}
	return admin, nil
}

// EnsureBootstrapAdmin creates the configured admin when it does not exist yet.
// It reports whether a row was inserted. Blank credentials skip seeding.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password, departmentName string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, nil
	}

	admin := &domain.Admin{Username: username}
	if name := strings.TrimSpace(departmentName); name != "" {
		dept, err := s.departments.GetByName(ctx, name)
		switch {
		case err == nil:
			admin.DepartmentID = &dept.ID
			admin.DepartmentName = &dept.Name
		case errors.Is(err, pgx.ErrNoRows):
			s.logger.Warn("bootstrap admin department unknown", zap.String("department", name))
		default:
			return false, err
		}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}
	admin.PasswordHash = hash
	created, err := s.admins.CreateIfMissing(ctx, admin)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return created, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
