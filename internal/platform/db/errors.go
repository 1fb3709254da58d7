package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// ConstraintMessages maps constraint names to the message a caller sees when
// that constraint rejects a write.
type ConstraintMessages map[string]string

// Translate converts a store error into an application error. Unique
// violations become conflicts, foreign-key and check violations become
// validation errors, a missing row becomes not found, and everything else is
// an internal error that keeps the cause for logging.
func Translate(err error, op string, messages ...ConstraintMessages) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg := lookup(pgErr.ConstraintName, messages)
		switch pgErr.Code {
		case codeUniqueViolation:
			if msg == "" {
				msg = "resource already exists"
			}
			return &apperr.Error{Kind: apperr.KindConflict, Message: msg, Err: err}
		case codeForeignKeyViolation:
			if msg == "" {
				msg = "referenced resource does not exist"
			}
			return &apperr.Error{Kind: apperr.KindValidation, Message: msg, Err: err}
		case codeCheckViolation:
			if msg == "" {
				msg = "value out of range"
			}
			return &apperr.Error{Kind: apperr.KindValidation, Message: msg, Err: err}
		}
	}

	return apperr.Internal(op, err)
}

func lookup(constraint string, messages []ConstraintMessages) string {
	for _, m := range messages {
		if msg, ok := m[constraint]; ok {
			return msg
		}
	}
	return ""
}
