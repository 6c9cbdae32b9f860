package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Postgres SQLSTATE codes the store translates.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Unique constraint names created by the init migration.
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

func mapReadError(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// mapWriteError turns constraint violations into conflict / not-found errors.
// missingRef names the resource a foreign-key violation points at.
func mapWriteError(err error, missingRef string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintUsername:
			return apperrors.NewConflict("Username already exists", map[string]any{"field": "username"})
		case constraintEmail:
			return apperrors.NewConflict("Email already exists", map[string]any{"field": "email"})
		default:
			return apperrors.NewConflict("record already exists", map[string]any{"constraint": pgErr.ConstraintName})
		}
	case pgForeignKeyViolation:
		return apperrors.NewNotFound(missingRef, nil)
	default:
		return err
	}
}
