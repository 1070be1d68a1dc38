package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"no rows", pgx.ErrNoRows, apperr.KindNotFound},
		{"exclusion", &pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"}, apperr.KindConflict},
		{"unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "reviews_appointment_id_key"}), apperr.KindConflict},
		{"check", &pgconn.PgError{Code: "23514"}, apperr.KindValidation},
		{"bad input", &pgconn.PgError{Code: "22P02"}, apperr.KindValidation},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperr.KindValidation},
		{"other", errors.New("connection reset"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate("op", tc.err)
			if apperr.KindOf(got) != tc.kind {
				t.Fatalf("expected kind %s, got %v", tc.kind, got)
			}
		})
	}
	if translate("op", nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestNotFound(t *testing.T) {
	if err := notFound("op", "employee", &pgconn.PgError{Code: "22P02"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("invalid uuid should read as NotFound, got %v", err)
	}
	if err := notFound("op", "employee", pgx.ErrNoRows); err.Error() != "op: employee not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(&pgconn.PgError{Code: "23P01"}) || !IsConflict(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("exclusion and unique violations are conflicts")
	}
	if IsConflict(errors.New("x")) {
		t.Fatal("plain error is not a conflict")
	}
}
