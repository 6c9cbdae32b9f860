package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
}

// ParseTicketStatus accepts only the three known statuses. Any status may
// follow any other; there is no transition ordering.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved:
		return TicketStatus(raw), true
	default:
		return "", false
	}
}

// Ticket is a support request owned by exactly one user.
type Ticket struct {
	ID          int64
	Subject     string
	Description string
	Status      TicketStatus
	UserID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Field limits mirrored by the database schema.
const (
	MaxUsernameLength = 64
	MaxEmailLength    = 120
	MaxSubjectLength  = 200
)
