package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// MemoryStore keeps users and tickets in process memory. Stored strings are
// copied so callers may pass request-scoped buffers. It enforces the
// same uniqueness and reference rules as the Postgres schema and is used
// when no DSN is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	now          func() time.Time
	nextUserID   int64
	nextTicketID int64
	users        map[int64]domain.User
	usernames    map[string]int64
	emails       map[string]int64
	tickets      map[int64]domain.Ticket
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		users:     make(map[int64]domain.User),
		usernames: make(map[string]int64),
		emails:    make(map[string]int64),
		tickets:   make(map[int64]domain.Ticket),
	}
}

// WithClock overrides the timestamp source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Users exposes the store as a UserRepository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Tickets exposes the store as a TicketRepository.
func (s *MemoryStore) Tickets() TicketRepository { return memoryTickets{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[user.Username]; taken {
		return apperrors.NewConflict("Username already exists", map[string]any{"field": "username"})
	}
	if _, taken := s.emails[user.Email]; taken {
		return apperrors.NewConflict("Email already exists", map[string]any{"field": "email"})
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.now().UTC()
	stored := *user
	stored.Username = strings.Clone(user.Username)
	stored.Email = strings.Clone(user.Email)
	stored.PasswordHash = strings.Clone(user.PasswordHash)
	s.users[stored.ID] = stored
	s.usernames[stored.Username] = stored.ID
	s.emails[stored.Email] = stored.ID
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (m memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return s.userLocked(id)
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return s.userLocked(id)
}

func (s *MemoryStore) userLocked(id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return &u, nil
}

type memoryTickets struct{ s *MemoryStore }

func (m memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ticket.UserID]; !ok {
		return apperrors.NewNotFound("user", map[string]any{"user_id": ticket.UserID})
	}
	s.nextTicketID++
	now := s.now().UTC()
	ticket.ID = s.nextTicketID
	ticket.Status = domain.TicketStatusOpen
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := *ticket
	stored.Subject = strings.Clone(ticket.Subject)
	stored.Description = strings.Clone(ticket.Description)
	s.tickets[stored.ID] = stored
	return nil
}

func (m memoryTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return &t, nil
}

func (m memoryTickets) ListByUser(_ context.Context, userID int64) ([]domain.Ticket, error) {
	return m.s.listTickets(func(t domain.Ticket) bool { return t.UserID == userID }), nil
}

func (m memoryTickets) ListAll(_ context.Context) ([]domain.Ticket, error) {
	return m.s.listTickets(func(domain.Ticket) bool { return true }), nil
}

func (m memoryTickets) UpdateStatus(_ context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	t.Status = status
	t.UpdatedAt = s.now().UTC()
	s.tickets[id] = t
	return &t, nil
}

// listTickets returns matching tickets newest first, ties broken by id.
func (s *MemoryStore) listTickets(keep func(domain.Ticket) bool) []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Ticket{}
	for _, t := range s.tickets {
		if keep(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}
