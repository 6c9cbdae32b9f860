package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestMapWriteError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{"username unique", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintUsername}, apperrors.CodeConflict, "Username already exists"},
		{"email unique", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintEmail}, apperrors.CodeConflict, "Email already exists"},
		{"other unique", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "x"}, apperrors.CodeConflict, "record already exists"},
		{"foreign key", &pgconn.PgError{Code: pgForeignKeyViolation}, apperrors.CodeNotFound, "user not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperrors.ToDomainError(mapWriteError(tt.err, "user"))
			if got.Code != tt.wantCode || got.Message != tt.wantMsg {
				t.Errorf("got (%s, %q), want (%s, %q)", got.Code, got.Message, tt.wantCode, tt.wantMsg)
			}
		})
	}

	if mapWriteError(nil, "user") != nil {
		t.Error("nil must stay nil")
	}
	if !errors.Is(mapWriteError(plain, "user"), plain) {
		t.Error("non-postgres errors must pass through")
	}
	if got := mapWriteError(&pgconn.PgError{Code: "40001"}, "user"); apperrors.HasCode(got, apperrors.CodeConflict) {
		t.Error("unrelated SQLSTATE must not become a conflict")
	}
}

func TestMapReadError(t *testing.T) {
	if !apperrors.IsNotFound(mapReadError(pgx.ErrNoRows, "ticket")) {
		t.Error("ErrNoRows should map to not found")
	}
	other := errors.New("timeout")
	if mapReadError(other, "ticket") != other {
		t.Error("other errors pass through")
	}
}

func TestPostgresRepositories_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = NewUserRepository(nil)
	var _ TicketRepository = NewTicketRepository(nil)
	var _ UserRepository = NewMemoryStore().Users()
	var _ TicketRepository = NewMemoryStore().Tickets()
}
