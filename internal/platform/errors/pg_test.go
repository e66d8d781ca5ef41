package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgErr(code string) *pgconn.PgError { return &pgconn.PgError{Code: code, Message: "boom"} }

func TestDBErrorCode(t *testing.T) {
	cases := []struct {
		state string
		want  ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"22P02", ErrorCodeInvalidArgument},
		{"57P03", ErrorCodeUnavailable},
		{"08006", ErrorCodeUnavailable},
		{"53300", ErrorCodeUnavailable},
		{"42P01", ErrorCodeSchemaMismatch},
		{"42703", ErrorCodeSchemaMismatch},
		{"40001", ErrorCodeDB},
		{"X", ErrorCodeDB},
	}
	for _, c := range cases {
		t.Run(c.state, func(t *testing.T) {
			wrapped := fmt.Errorf("read responses: %w", pgErr(c.state))
			got, ok := DBErrorCode(wrapped)
			if !ok || got != c.want {
				t.Fatalf("DBErrorCode(%s) = %v,%v want %v", c.state, got, ok, c.want)
			}
		})
	}
	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatalf("plain error reported as postgres")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil should stay nil")
	}

	col := pgErr("23502")
	col.ColumnName = "cells"
	e, ok := As(FromPostgres(col, "append rows"))
	if !ok || e.Code() != ErrorCodeValidation || e.Field() != "cells" {
		t.Fatalf("got %+v", e)
	}
	if !stderrs.Is(e, col) {
		t.Fatalf("cause lost")
	}

	if CodeOf(FromPostgres(stderrs.New("conn reset"), "ping")) != ErrorCodeDB {
		t.Fatalf("foreign errors should map to db")
	}
}

func TestSQLStatePredicates(t *testing.T) {
	undefined := Wrap(pgErr(SQLStateUndefinedTable), ErrorCodeDB, "select")
	if !IsUndefinedObject(undefined) || !IsSQLState(undefined, "42P01") {
		t.Fatalf("undefined table not recognised through Wrap")
	}
	if IsUndefinedObject(pgErr(SQLStateUniqueViolation)) {
		t.Fatalf("unique violation is not an undefined object")
	}
	if s, ok := SQLState(stderrs.New("x")); ok || s != "" {
		t.Fatalf("SQLState on plain error = %q,%v", s, ok)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"serialization": {pgErr("40001"), true},
		"deadlock":      {fmt.Errorf("tx: %w", pgErr("40P01")), true},
		"lock":          {pgErr("55P03"), true},
		"unique":        {pgErr("23505"), false},
		"canceled":      {context.Canceled, false},
		"plain":         {stderrs.New("nope"), false},
		"nil":           {nil, false},
	}
	for name, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Fatalf("%s: IsRetryable = %v, want %v", name, got, c.want)
		}
	}
}
