package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrForeignKey is returned when a row is still referenced or references a missing row.
	ErrForeignKey = errors.New("foreign key constraint violation")

	// ErrConcurrencyConflict is returned when the database aborted the transaction
	// because of a deadlock, a serialization failure or a lock timeout.
	ErrConcurrencyConflict = errors.New("concurrent transaction conflict")

	// ErrInsufficientStock is returned by the ledger when a change would make a quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// sqlState extracts the SQLSTATE code from a lib/pq or pgx error.
func sqlState(err error) (code string, constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

// wrapDBError maps a driver error onto the repository sentinels, keeping the
// original message for logs.
func wrapDBError(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrDatabaseError, action, err)
	}
	code, constraint, ok := sqlState(err)
	if ok {
		switch code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, action, constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s (constraint: %s)", ErrForeignKey, action, constraint)
		case codeCheckViolation:
			if constraint == "ingredients_quantity_non_negative" {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, action)
			}
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%w: %s: %v", ErrConcurrencyConflict, action, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, action, err)
}
