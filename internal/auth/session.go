package auth

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
)

const (
	sessionLocalsKey = "auth_session"

	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "role"
	keyFlashes  = "_flashes"
)

// Flash categories.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// SessionManager owns the server-side session tied to the client cookie.
type SessionManager struct {
	store *session.Store
}

// NewSessionManager configures the session store. A nil storage keeps
// sessions in process memory.
func NewSessionManager(cfg config.SessionConfig, storage fiber.Storage) *SessionManager {
	return &SessionManager{store: session.New(session.Config{
		Expiration:     cfg.TTL(),
		Storage:        storage,
		KeyLookup:      "cookie:" + cfg.CookieName,
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	})}
}

// Middleware loads the session once per request and persists it after the
// handler chain. Untouched anonymous sessions are never written.
func (m *SessionManager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := m.store.Get(c)
		if err != nil {
			return err
		}
		c.Locals(sessionLocalsKey, sess)

		err = c.Next()

		if sess.Fresh() && len(sess.Keys()) == 0 {
			return err
		}
		if saveErr := sess.Save(); saveErr != nil && err == nil {
			return saveErr
		}
		return err
	}
}

func (m *SessionManager) current(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionLocalsKey).(*session.Session)
	return sess
}

// Login binds the user to a fresh session id.
func (m *SessionManager) Login(c *fiber.Ctx, user *domain.User) error {
	sess := m.current(c)
	if sess == nil {
		return fiber.ErrInternalServerError
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(keyUserID, user.ID)
	sess.Set(keyUsername, user.Username)
	sess.Set(keyRole, string(user.Role))
	return nil
}

// Logout drops everything in the session, pending flashes included, and
// rotates the session id.
func (m *SessionManager) Logout(c *fiber.Ctx) error {
	sess := m.current(c)
	if sess == nil {
		return nil
	}
	for _, key := range sess.Keys() {
		sess.Delete(key)
	}
	return sess.Regenerate()
}

// forget clears the identity keys without touching flashes.
func (m *SessionManager) forget(c *fiber.Ctx) {
	sess := m.current(c)
	if sess == nil {
		return
	}
	sess.Delete(keyUserID)
	sess.Delete(keyUsername)
	sess.Delete(keyRole)
}

// userID returns the id stored at login.
func (m *SessionManager) userID(c *fiber.Ctx) (int64, bool) {
	sess := m.current(c)
	if sess == nil {
		return 0, false
	}
	id, ok := sess.Get(keyUserID).(int64)
	return id, ok && id > 0
}

// Flash queues a message for the next render.
func (m *SessionManager) Flash(c *fiber.Ctx, category, message string) {
	sess := m.current(c)
	if sess == nil {
		return
	}
	flashes := m.peek(sess)
	flashes = append(flashes, Flash{Category: category, Message: message})
	if raw, err := json.Marshal(flashes); err == nil {
		sess.Set(keyFlashes, string(raw))
	}
}

// Flashes returns and clears pending messages.
func (m *SessionManager) Flashes(c *fiber.Ctx) []Flash {
	sess := m.current(c)
	if sess == nil {
		return nil
	}
	flashes := m.peek(sess)
	sess.Delete(keyFlashes)
	return flashes
}

func (m *SessionManager) peek(sess *session.Session) []Flash {
	raw, ok := sess.Get(keyFlashes).(string)
	if !ok || raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}
