package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const requestContextKey = "auth_request_context"

// RequestContext carries the caller resolved from the session.
type RequestContext struct {
	Identity *domain.Identity
}

// Authenticated reports whether a user is logged in.
func (rc RequestContext) Authenticated() bool {
	return rc.Identity != nil
}

// IdentityMiddleware resolves the session's user id to an Identity.
type IdentityMiddleware struct {
	sessions *SessionManager
	users    repository.UserRepository
}

// NewIdentityMiddleware constructs middleware.
func NewIdentityMiddleware(sessions *SessionManager, users repository.UserRepository) *IdentityMiddleware {
	return &IdentityMiddleware{sessions: sessions, users: users}
}

// Handle attaches a RequestContext to every request. A session pointing at
// a user that no longer exists is downgraded to anonymous.
func (m *IdentityMiddleware) Handle(c *fiber.Ctx) error {
	rc := RequestContext{}

	if id, ok := m.sessions.userID(c); ok {
		user, err := m.users.GetByID(c.UserContext(), id)
		switch {
		case err == nil:
			identity := domain.IdentityOf(user)
			rc.Identity = &identity
		case apperrors.IsNotFound(err):
			m.sessions.forget(c)
		default:
			return err
		}
	}

	c.Locals(requestContextKey, rc)
	return c.Next()
}

// RequestContextFrom retrieves the caller. Requests that skipped the
// middleware are anonymous.
func RequestContextFrom(c *fiber.Ctx) RequestContext {
	rc, _ := c.Locals(requestContextKey).(RequestContext)
	return rc
}
