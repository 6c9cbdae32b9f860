package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

// TicketView is the template-facing shape of a ticket.
type TicketView struct {
	ID          int64
	Subject     string
	Description string
	Status      string
	StatusClass string
	Submitter   string
	CreatedAt   string
	UpdatedAt   string
}

// NewTicketView formats a ticket for display. Times render in UTC.
func NewTicketView(t domain.Ticket, submitter string) TicketView {
	return TicketView{
		ID:          t.ID,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      string(t.Status),
		StatusClass: StatusClass(t.Status),
		Submitter:   submitter,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

// NewTicketViews formats a list, resolving submitters from names.
func NewTicketViews(tickets []domain.Ticket, names map[int64]string) []TicketView {
	out := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketView(t, names[t.UserID]))
	}
	return out
}

// StatusClass maps a status to its badge CSS class, e.g. "In Progress" to
// "status-in-progress".
func StatusClass(s domain.TicketStatus) string {
	return "status-" + strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}

// StatusOptions lists every status for the update form.
func StatusOptions() []string {
	out := make([]string, 0, len(domain.TicketStatuses))
	for _, s := range domain.TicketStatuses {
		out = append(out, string(s))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
