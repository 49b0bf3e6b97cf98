package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// IsUniqueViolation checks if an error is a PostgreSQL unique constraint violation
// If constraint is empty, it returns true for any unique violation
// If constraint is specified, it only returns true for that specific constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	if string(pqErr.Code) != pqUniqueViolation {
		return false
	}

	if constraint == "" {
		return true
	}

	return pqErr.Constraint == constraint
}

const pqInvalidTextRepresentation = "22P02"

// IsInvalidText reports a value PostgreSQL could not parse for its column
// type, such as a malformed UUID in a lookup.
func IsInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqInvalidTextRepresentation
}

// notFound reports whether err means the addressed row cannot exist.
func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || IsInvalidText(err)
}
