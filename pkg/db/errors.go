package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/bloomcart-backend/pkg/errors"
)

// IsUniqueViolation reports a duplicate key from postgres (either driver) or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pkgerrors.IsUniqueViolation(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
