package errors

import (
	"context"
	stderrs "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE values the stores branch on
const (
	SQLStateUndefinedTable  = "42P01"
	SQLStateUndefinedColumn = "42703"
	SQLStateUniqueViolation = "23505"
)

// sqlStates maps individual SQLSTATE codes; classes below catch the rest
var sqlStates = map[string]ErrorCode{
	SQLStateUniqueViolation: ErrorCodeDuplicateKey,
	"23503":                 ErrorCodeInvalidArgument, // foreign key
	"23502":                 ErrorCodeValidation,      // not null
	"23514":                 ErrorCodeValidation,      // check
	"22001":                 ErrorCodeInvalidArgument, // string too long
	"22P02":                 ErrorCodeInvalidArgument, // bad text representation
	"25006":                 ErrorCodeUnavailable,     // read only transaction
	"57014":                 ErrorCodeUnavailable,     // query canceled
	"57P01":                 ErrorCodeUnavailable,     // admin shutdown
	"57P03":                 ErrorCodeUnavailable,     // cannot connect now
	SQLStateUndefinedTable:  ErrorCodeSchemaMismatch,
	SQLStateUndefinedColumn: ErrorCodeSchemaMismatch,
}

var sqlClasses = map[string]ErrorCode{
	"08": ErrorCodeUnavailable, // connection exception
	"53": ErrorCodeUnavailable, // insufficient resources
}

// retryable SQLSTATEs: serialization failure, deadlock, lock not available
var retryable = map[string]bool{"40001": true, "40P01": true, "55P03": true}

// SQLState returns the SQLSTATE of the Postgres error wrapped in err, if any
func SQLState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return "", false
	}
	return pgErr.Code, true
}

// IsSQLState reports whether err wraps a Postgres error with the given SQLSTATE
func IsSQLState(err error, code string) bool {
	s, ok := SQLState(err)
	return ok && s == code
}

// IsUndefinedObject reports whether err names a table or column that does not exist
func IsUndefinedObject(err error) bool {
	return IsSQLState(err, SQLStateUndefinedTable) || IsSQLState(err, SQLStateUndefinedColumn)
}

// DBErrorCode maps a Postgres error to an ErrorCode; ok is false when err is not one
func DBErrorCode(err error) (code ErrorCode, ok bool) {
	s, ok := SQLState(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if c, hit := sqlStates[s]; hit {
		return c, true
	}
	if len(s) >= 2 {
		if c, hit := sqlClasses[s[:2]]; hit {
			return c, true
		}
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its mapped code, ErrorCodeDB for anything unmapped
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	e := &Error{code: code, msg: msg, orig: err}
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) && pgErr.ColumnName != "" {
		e.field = pgErr.ColumnName
	}
	return e
}

// IsRetryable reports contention errors worth another attempt; local
// cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	s, ok := SQLState(err)
	return ok && retryable[s]
}
