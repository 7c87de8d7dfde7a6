package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation from
// Postgres (pgx or lib/pq), SQLite, or GORM's translated ErrDuplicatedKey.
//
// When names are given, at least one must match what the driver reports.
// Postgres reports the index name (ux_policy_expiry_log_policy_id) while
// SQLite reports table.column (policy_expiry_log.policy_id), so callers
// usually pass both.
func IsUniqueViolation(err error, names ...string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolation && matchesConstraint(pgxErr.ConstraintName, pgxErr.Message, names)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation && matchesConstraint(pqErr.Constraint, pqErr.Message, names)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.ExtendedCode != sqlite3.ErrConstraintUnique && liteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
			return false
		}
		return matchesConstraint("", liteErr.Error(), names)
	}

	// translated errors no longer carry the constraint name
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed") {
		return matchesConstraint("", msg, names)
	}
	return false
}

func matchesConstraint(reported, msg string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if reported != "" && reported == name {
			return true
		}
		if strings.Contains(msg, name) {
			return true
		}
	}
	return false
}
