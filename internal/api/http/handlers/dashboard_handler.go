package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
)

// DashboardHandler lists tickets for end users and for staff.
type DashboardHandler struct {
	service *service.TicketService
	pages   *Pages
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(ticketService *service.TicketService, pages *Pages) *DashboardHandler {
	return &DashboardHandler{service: ticketService, pages: pages}
}

// User GET /user/dashboard.
func (h *DashboardHandler) User(c *fiber.Ctx) error {
	caller := *auth.RequestContextFrom(c).Identity

	tickets, err := h.service.ListOwn(c.UserContext(), caller)
	if err != nil {
		return err
	}
	names := map[int64]string{caller.UserID: caller.Username}
	return h.pages.Render(c, fiber.StatusOK, "user_dashboard", "My tickets", fiber.Map{
		"Tickets": dto.NewTicketViews(tickets, names),
	})
}

// Agent GET /agent/dashboard.
func (h *DashboardHandler) Agent(c *fiber.Ctx) error {
	caller := *auth.RequestContextFrom(c).Identity

	tickets, err := h.service.ListAll(c.UserContext(), caller)
	if err != nil {
		return err
	}
	names, err := h.service.Submitters(c.UserContext(), tickets...)
	if err != nil {
		return err
	}
	return h.pages.Render(c, fiber.StatusOK, "agent_dashboard", "All tickets", fiber.Map{
		"Tickets": dto.NewTicketViews(tickets, names),
	})
}
