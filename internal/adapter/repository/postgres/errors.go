package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrUniqueViolation = "23505"

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	if pgErr.Code != pgErrUniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
