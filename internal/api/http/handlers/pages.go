package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/auth"
)

// CSRFContextKey is where the CSRF middleware leaves the form token.
const CSRFContextKey = "csrf"

const layout = "layouts/main"

// Pages renders views inside the shared layout with the caller, pending
// flashes and the CSRF token filled in.
type Pages struct {
	sessions *auth.SessionManager
}

// NewPages constructs the renderer.
func NewPages(sessions *auth.SessionManager) *Pages {
	return &Pages{sessions: sessions}
}

// Render writes view with status. Rendering pops pending flashes.
func (p *Pages) Render(c *fiber.Ctx, status int, view, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["Identity"] = auth.RequestContextFrom(c).Identity
	data["Flashes"] = p.sessions.Flashes(c)
	token, _ := c.Locals(CSRFContextKey).(string)
	data["CSRFToken"] = token
	return c.Status(status).Render(view, data, layout)
}

// Redirect queues a flash and sends the caller to path.
func (p *Pages) Redirect(c *fiber.Ctx, path, category, message string) error {
	if message != "" {
		p.sessions.Flash(c, category, message)
	}
	return c.Redirect(path)
}

// Sessions exposes the session manager to handlers that log users in or out.
func (p *Pages) Sessions() *auth.SessionManager {
	return p.sessions
}
