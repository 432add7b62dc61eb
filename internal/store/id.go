package store

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// newID returns a 32-char uuid hex string without hyphens, matching the
// CHAR(32) primary keys.
func newID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
