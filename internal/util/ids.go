// Package util provides utility functions for the TriagePipe application.
package util

import (
	"strings"

	"github.com/google/uuid"
)

// AnonymousUserPrefix marks server-minted user ids.
const AnonymousUserPrefix = "anon_user_"

// NewAnonymousUserID mints an identifier for a caller that did not supply one.
func NewAnonymousUserID() string {
	return AnonymousUserPrefix + uuid.NewString()
}

// IsAnonymousUserID reports whether id was minted by NewAnonymousUserID.
func IsAnonymousUserID(id string) bool {
	return strings.HasPrefix(id, AnonymousUserPrefix)
}
