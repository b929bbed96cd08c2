package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const sessionKey = "admin_session"

type sessionCtxKey struct{}

// SessionMiddleware resolves the admin session cookie into a domain.Session.
type SessionMiddleware struct {
	tokens     *TokenManager
	store      SessionStore
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, store SessionStore, cookieName string, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, store: store, cookieName: cookieName, logger: logger}
}

// Handle enforces an admin session for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(m.cookieName)
	if raw == "" {
		return apperrors.NewAuthRequired("")
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewAuthRequired("")
	}

	session, err := m.store.Get(c.UserContext(), claims.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return apperrors.NewAuthRequired("")
		}
		m.logger.Error("session lookup failed", zap.Error(err))
		return apperrors.NewInternalError(err)
	}

	c.Locals(sessionKey, session)
	c.SetUserContext(WithSession(c.UserContext(), session))
	return c.Next()
}

// SessionFromFiber retrieves the authenticated admin session.
func SessionFromFiber(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*domain.Session)
	return session, ok
}

// WithSession stores the session on ctx for service-layer callers.
func WithSession(ctx context.Context, session *domain.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the session placed by WithSession.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*domain.Session)
	return session, ok && session != nil
}
