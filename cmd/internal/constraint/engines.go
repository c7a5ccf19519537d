package constraint

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// pgViolation lifts a pgx server error into a Violation.
type pgViolation struct{ *pgconn.PgError }

func (v pgViolation) IsConstraintViolation() bool {
	return v.Code == pgUniqueViolation || v.Code == pgCheckViolation
}

func (v pgViolation) DiagnosticMessage() string { return v.Message }

func (v pgViolation) ConstraintName() string { return v.PgError.ConstraintName }

// sqliteViolation lifts a modernc sqlite error into a Violation.
type sqliteViolation struct{ err *sqlite.Error }

func (v sqliteViolation) Error() string { return v.err.Error() }

func (v sqliteViolation) IsConstraintViolation() bool {
	// Extended result codes keep the primary code in the low byte.
	return v.err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

func (v sqliteViolation) DiagnosticMessage() string { return v.err.Error() }

func engineViolation(err error) (Violation, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgViolation{pgErr}, true
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqliteViolation{err: sqErr}, true
	}
	return nil, false
}
