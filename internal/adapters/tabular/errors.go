package tabular

import (
	"context"
	"errors"

	perr "likert/internal/platform/errors"
)

// Store operations carried on errors through perr.WithOp
const (
	OpReadAll      = "read_all"
	OpAppend       = "append"
	OpOverwriteAll = "overwrite_all"
	OpPing         = "ping"
)

// StoreUnavailable reports a store that could not be reached or did not answer in time
func StoreUnavailable(op string, err error) error {
	return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "store unavailable"), op)
}

// StoreSchemaMismatch reports a reachable store whose layout cannot be read as a table
func StoreSchemaMismatch(op, format string, a ...any) error {
	return perr.WithOp(perr.SchemaMismatchf(format, a...), op)
}

// StoreConflict reports a conditional write that lost a race with another writer
func StoreConflict(op string, err error) error {
	return perr.WithOp(perr.Wrap(err, perr.ErrorCodeConflict, "store changed since it was read"), op)
}

// Classify tags err with op. Errors that already carry a code keep it; everything else,
// deadlines and cancellations included, is reported as unavailable
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := perr.As(err); ok && e.Code() != perr.ErrorCodeUnknown {
		if e.Op() == "" {
			return perr.WithOp(err, op)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "store timed out"), op)
	}
	return StoreUnavailable(op, err)
}

// IsUnavailable reports a store error worth a "try again" answer
func IsUnavailable(err error) bool { return perr.IsCode(err, perr.ErrorCodeUnavailable) }

// IsSchemaMismatch reports a layout problem that needs an operator
func IsSchemaMismatch(err error) bool { return perr.IsCode(err, perr.ErrorCodeSchemaMismatch) }

// IsConflict reports a lost conditional write
func IsConflict(err error) bool { return perr.IsCode(err, perr.ErrorCodeConflict) }
