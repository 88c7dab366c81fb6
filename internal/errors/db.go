package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database driver errors onto the application taxonomy:
//   - pgx.ErrNoRows → NotFound
//   - unique/check/not-null violations → Validation
//   - context timeouts and cancellation → Internal (wrapped)
//
// Unrecognized errors are returned unchanged so callers can still wrap them
// with a component-specific kind.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeInternal, "database request aborted")
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(err, ErrCodeNotFound, "row not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return Wrap(err, ErrCodeValidation, "value already exists")
		case pgerrcode.ForeignKeyViolation:
			return Wrap(err, ErrCodeValidation, "referenced row does not exist")
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return Wrap(err, ErrCodeValidation, "value rejected by constraint")
		}
	}

	return err
}
