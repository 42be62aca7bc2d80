//go:build !js || !wasm

package env

import (
	"os"
	"strings"
)

// Get retrieves an environment variable, treating blank values as unset
func Get(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return "", false
	}
	return value, true
}
