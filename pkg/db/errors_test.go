package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsForeignKeyViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pgx", err: fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"}), want: true},
		{name: "pq", err: &pq.Error{Code: "23503"}, want: true},
		{name: "sqlite", err: errors.New("FOREIGN KEY constraint failed"), want: true},
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsForeignKeyViolation(tc.err); got != tc.want {
				t.Fatalf("IsForeignKeyViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}, "") {
		t.Fatal("expected pg unique violation")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email"), "") {
		t.Fatal("expected sqlite unique violation")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "ux_customers_user"`), "ux_customers_user") {
		t.Fatal("expected named constraint match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("unexpected match")
	}
}
