package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

// IsRetryable reports whether a transaction failed only because it lost a
// race with a concurrent one and can be run again as is.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return true
		}
	}

	return false
}

func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch pge.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w", pge.ConstraintName, repository.ErrConflict)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %w", pge.ConstraintName, repository.ErrNotFound)
		}
	}

	return err
}

// wrapDBErr maps common DB errors to repository-level errors and wraps them
// with the operation name.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if IsRetryable(err) {
		return fmt.Errorf("%s:%w", op, err)
	}

	return fmt.Errorf("%s:%w", op, translateDBErr(err))
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
