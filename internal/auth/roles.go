package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Permission names an operation guarded by role.
type Permission int

const (
	PermViewOwnTickets Permission = iota
	PermViewAllTickets
	PermCreateTicket
	PermViewTicket
	PermUpdateTicketStatus
)

// Landing pages used by redirects.
const (
	LoginPath          = "/login"
	UserDashboardPath  = "/user/dashboard"
	AgentDashboardPath = "/agent/dashboard"
)

// Allowed is the role rule table. Roles are flat; there is no hierarchy.
func Allowed(role domain.Role, perm Permission) bool {
	switch role {
	case domain.RoleUser:
		switch perm {
		case PermViewOwnTickets, PermCreateTicket, PermViewTicket:
			return true
		default:
			return false
		}
	case domain.RoleAgent, domain.RoleAdmin:
		switch perm {
		case PermViewAllTickets, PermViewTicket, PermUpdateTicketStatus:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// CanViewTicket applies the ownership rule on top of the role table: users
// see only their own tickets, staff see every ticket.
func CanViewTicket(id domain.Identity, ticket *domain.Ticket) bool {
	if ticket == nil || !Allowed(id.Role, PermViewTicket) {
		return false
	}
	switch id.Role {
	case domain.RoleUser:
		return ticket.UserID == id.UserID
	case domain.RoleAgent, domain.RoleAdmin:
		return true
	default:
		return false
	}
}

// LandingPath is where a role goes after login or from "/".
func LandingPath(role domain.Role) string {
	switch role {
	case domain.RoleUser:
		return UserDashboardPath
	case domain.RoleAgent, domain.RoleAdmin:
		return AgentDashboardPath
	default:
		return LoginPath
	}
}

// Require guards a route. Anonymous callers are sent to the login page;
// authenticated callers without the permission get an "Access denied" flash.
func Require(perm Permission, sessions *SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := RequestContextFrom(c)
		if !rc.Authenticated() {
			return c.Redirect(LoginPath)
		}
		if !Allowed(rc.Identity.Role, perm) {
			sessions.Flash(c, FlashError, "Access denied")
			return c.Redirect(LoginPath)
		}
		return c.Next()
	}
}
