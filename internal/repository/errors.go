package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound single-row lookup matched zero rows
	ErrNotFound = errors.New("record not found")

	// ErrMultipleRows single-row lookup matched more than one row;
	// callers must use fields known to be unique
	ErrMultipleRows = errors.New("multiple records match")

	// ErrProvisionFailed table creation failed; the owning store row still
	// exists and provisioning is retried lazily on next access
	ErrProvisionFailed = errors.New("store table provisioning failed")
)

// Postgres error codes (lib/pq)
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// IsUniqueViolation reports whether err is a unique-index conflict.
// The unique index is the single source of truth for image_code
// uniqueness; callers retry code resolution on conflict.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

// isUndefinedTable reports whether err means the store's tables are
// absent, which triggers lazy self-heal provisioning.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUndefinedTable
	}
	return false
}
