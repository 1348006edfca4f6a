package db

import (
	"context"
	"errors"
	"net"
	"strings"

	"predpraznik_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the application reacts to.
const (
	codeUniqueViolation       = "23505"
	codeForeignKeyViolation   = "23503"
	codeCheckViolation        = "23514"
	codeInsufficientPrivilege = "42501"
	codeSerializationFailure  = "40001"
	codeDeadlockDetected      = "40P01"
)

// MapError converts a pgx error into a typed application error. Errors that
// are already typed pass through unchanged.
func MapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.KindNotFound, "not found", err).WithOp(op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, "duplicate value violates "+pgErr.ConstraintName, err).
				WithOp(op).
				WithDetails(map[string]string{"constraint": pgErr.ConstraintName})
		case pgErr.Code == codeForeignKeyViolation:
			return apperr.Wrap(apperr.KindValidation, "referenced record does not exist", err).WithOp(op)
		case pgErr.Code == codeCheckViolation:
			return apperr.Wrap(apperr.KindValidation, "value violates "+pgErr.ConstraintName, err).WithOp(op)
		case pgErr.Code == codeInsufficientPrivilege, strings.HasPrefix(pgErr.Code, "28"):
			return apperr.Wrap(apperr.KindForbidden, "permission denied", err).WithOp(op)
		case pgErr.Code == codeSerializationFailure, pgErr.Code == codeDeadlockDetected, strings.HasPrefix(pgErr.Code, "08"):
			return apperr.Wrap(apperr.KindTransient, "database temporarily unavailable", err).WithOp(op)
		}
		return apperr.Wrap(apperr.KindInternal, "database error", err).WithOp(op)
	}

	if isTransient(err) {
		return apperr.Wrap(apperr.KindTransient, "database temporarily unavailable", err).WithOp(op)
	}

	return apperr.Wrap(apperr.KindInternal, "database error", err).WithOp(op)
}

// IsUniqueViolation reports whether err is a unique constraint violation on
// the named constraint. An empty name matches any unique constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsNoRows reports whether err is pgx's empty result sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
