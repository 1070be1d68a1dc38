package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
)

const (
	codeExclusionViolation = "23P01"
	codeUniqueViolation    = "23505"
	codeForeignKey         = "23503"
	codeCheckViolation     = "23514"
	codeInvalidText        = "22P02"
)

func IsConflict(err error) bool {
	code := pgCode(err)
	return code == codeExclusionViolation || code == codeUniqueViolation
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// translate maps a pgx error onto the apperr taxonomy. Anything it does not
// recognise is only wrapped with op.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if IsNotFound(err) {
		return apperr.Wrap(apperr.KindNotFound, op, err)
	}
	switch code := pgCode(err); {
	case code == codeExclusionViolation:
		return apperr.Conflict(op, "time slot already booked")
	case code == codeUniqueViolation:
		return apperr.Conflict(op, "duplicate %s", constraint(err))
	case code == codeForeignKey:
		return apperr.Validation(op, "referenced row does not exist (%s)", constraint(err))
	case code == codeCheckViolation, strings.HasPrefix(code, "22"):
		return apperr.Wrap(apperr.KindValidation, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notFound reports missing rows, and ids that are not even valid uuids, as
// NotFound for what.
func notFound(op, what string, err error) error {
	if IsNotFound(err) || pgCode(err) == codeInvalidText {
		return apperr.NotFound(op, what)
	}
	return translate(op, err)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "row"
}
