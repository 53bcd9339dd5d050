package database

import (
	"strings"

	"github.com/lectiohq/lectio/pkg/errcodes"
)

// IsUniqueViolation reports whether err means another row already holds a
// unique value. SQLite reports "UNIQUE constraint failed", Postgres uses
// SQLSTATE 23505 and HTTP row stores answer 409.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errcodes.IsConflict(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT_UNIQUE") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
