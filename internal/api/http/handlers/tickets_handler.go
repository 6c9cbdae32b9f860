package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	msgAccessDenied   = "Access denied"
	msgTicketNotFound = "Ticket not found"
)

// TicketsHandler manages ticket creation, detail and status updates.
type TicketsHandler struct {
	service *service.TicketService
	pages   *Pages
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, pages *Pages) *TicketsHandler {
	return &TicketsHandler{service: ticketService, pages: pages}
}

// CreatePage GET /create_ticket.
func (h *TicketsHandler) CreatePage(c *fiber.Ctx) error {
	return h.pages.Render(c, fiber.StatusOK, "create_ticket", "New ticket", fiber.Map{
		"Form": dto.CreateTicketForm{},
	})
}

// Create POST /create_ticket.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	caller := *auth.RequestContextFrom(c).Identity

	var form dto.CreateTicketForm
	_ = c.BodyParser(&form)

	_, err := h.service.Create(c.UserContext(), caller, form.Subject, form.Description)
	switch {
	case err == nil:
		return h.pages.Redirect(c, auth.UserDashboardPath, auth.FlashSuccess, "Ticket created successfully!")
	case apperrors.IsValidation(err):
		h.pages.Sessions().Flash(c, auth.FlashError, apperrors.ToDomainError(err).Message)
		return h.pages.Render(c, fiber.StatusBadRequest, "create_ticket", "New ticket", fiber.Map{"Form": form})
	case apperrors.IsForbidden(err):
		return h.pages.Redirect(c, auth.LoginPath, auth.FlashError, msgAccessDenied)
	default:
		return err
	}
}

// View GET /ticket/:id.
func (h *TicketsHandler) View(c *fiber.Ctx) error {
	caller := *auth.RequestContextFrom(c).Identity

	id, err := ticketID(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.Get(c.UserContext(), caller, id)
	switch {
	case err == nil:
	case apperrors.IsForbidden(err):
		return h.pages.Redirect(c, auth.LandingPath(caller.Role), auth.FlashError, msgAccessDenied)
	case apperrors.IsNotFound(err):
		return h.pages.Redirect(c, auth.AgentDashboardPath, auth.FlashError, msgTicketNotFound)
	default:
		return err
	}

	names, err := h.service.Submitters(c.UserContext(), *ticket)
	if err != nil {
		return err
	}
	return h.pages.Render(c, fiber.StatusOK, "view_ticket", ticket.Subject, fiber.Map{
		"Ticket":    dto.NewTicketView(*ticket, names[ticket.UserID]),
		"CanUpdate": auth.Allowed(caller.Role, auth.PermUpdateTicketStatus),
		"Statuses":  dto.StatusOptions(),
	})
}

// UpdateStatus POST /update_ticket_status/:id.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	caller := *auth.RequestContextFrom(c).Identity

	id, err := ticketID(c)
	if err != nil {
		return err
	}

	var form dto.UpdateStatusForm
	_ = c.BodyParser(&form)

	detail := ticketPath(id)
	updated, err := h.service.UpdateStatus(c.UserContext(), caller, id, form.Status)
	switch {
	case err == nil:
		return h.pages.Redirect(c, detail, auth.FlashSuccess,
			fmt.Sprintf("Ticket status updated to %s", updated.Status))
	case apperrors.IsNotFound(err):
		return h.pages.Redirect(c, auth.AgentDashboardPath, auth.FlashError, msgTicketNotFound)
	case apperrors.IsValidation(err):
		return h.pages.Redirect(c, detail, auth.FlashError, "Invalid status")
	case apperrors.IsForbidden(err):
		return h.pages.Redirect(c, auth.LoginPath, auth.FlashError, msgAccessDenied)
	default:
		return err
	}
}

func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("ticket", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func ticketPath(id int64) string {
	return "/ticket/" + strconv.FormatInt(id, 10)
}
