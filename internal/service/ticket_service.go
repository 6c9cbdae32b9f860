package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const accessDenied = "Access denied"

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create files a new ticket owned by the caller. Only end users may file.
func (s *TicketService) Create(ctx context.Context, caller domain.Identity, subject, description string) (*domain.Ticket, error) {
	if !auth.Allowed(caller.Role, auth.PermCreateTicket) {
		return nil, apperrors.NewForbidden(accessDenied)
	}

	subject = strings.TrimSpace(subject)
	description = strings.TrimSpace(description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("Subject and description are required", nil)
	}
	if utf8.RuneCountInString(subject) > domain.MaxSubjectLength {
		return nil, apperrors.NewValidationError("Subject is too long", map[string]any{"max": domain.MaxSubjectLength})
	}

	ticket := &domain.Ticket{
		Subject:     subject,
		Description: description,
		UserID:      caller.UserID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(caller),
		Payload:  events.TicketCreatedPayload{Subject: ticket.Subject},
	})
	return ticket, nil
}

// ListOwn returns the caller's tickets, newest first.
func (s *TicketService) ListOwn(ctx context.Context, caller domain.Identity) ([]domain.Ticket, error) {
	if !auth.Allowed(caller.Role, auth.PermViewOwnTickets) {
		return nil, apperrors.NewForbidden(accessDenied)
	}
	return s.tickets.ListByUser(ctx, caller.UserID)
}

// ListAll returns the shared queue, newest first.
func (s *TicketService) ListAll(ctx context.Context, caller domain.Identity) ([]domain.Ticket, error) {
	if !auth.Allowed(caller.Role, auth.PermViewAllTickets) {
		return nil, apperrors.NewForbidden(accessDenied)
	}
	return s.tickets.ListAll(ctx)
}

// Get loads one ticket. For end users a missing ticket and someone else's
// ticket are indistinguishable; staff get NotFound for missing tickets.
func (s *TicketService) Get(ctx context.Context, caller domain.Identity, id int64) (*domain.Ticket, error) {
	if !auth.Allowed(caller.Role, auth.PermViewTicket) {
		return nil, apperrors.NewForbidden(accessDenied)
	}

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) && !caller.Role.IsStaff() {
			return nil, apperrors.NewForbidden(accessDenied)
		}
		return nil, err
	}
	if !auth.CanViewTicket(caller, ticket) {
		return nil, apperrors.NewForbidden(accessDenied)
	}
	return ticket, nil
}

// UpdateStatus sets any of the three statuses from any status.
func (s *TicketService) UpdateStatus(ctx context.Context, caller domain.Identity, id int64, rawStatus string) (*domain.Ticket, error) {
	if !auth.Allowed(caller.Role, auth.PermUpdateTicketStatus) {
		return nil, apperrors.NewForbidden(accessDenied)
	}

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": rawStatus})
	}

	updated, err := s.tickets.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: updated.ID,
		Actor:    actorOf(caller),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: updated.Status,
		},
	})
	return updated, nil
}

// Submitters resolves the usernames of the tickets' owners. Owners that can
// no longer be found are left out of the map.
func (s *TicketService) Submitters(ctx context.Context, tickets ...domain.Ticket) (map[int64]string, error) {
	names := make(map[int64]string, len(tickets))
	if s.users == nil {
		return names, nil
	}
	for _, t := range tickets {
		if _, seen := names[t.UserID]; seen {
			continue
		}
		user, err := s.users.GetByID(ctx, t.UserID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		names[t.UserID] = user.Username
	}
	return names, nil
}
