package indexnow

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateKey returns a random 32 character hex key suitable for IndexNow.
// The key still has to be published by the caller, typically as {key}.txt at
// the site root or at the key location.
func GenerateKey() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
