//go:build js && wasm

package env

import (
	"strings"

	"github.com/syumai/workers/cloudflare"
)

// Get retrieves a variable from the Cloudflare Workers environment
func Get(key string) (string, bool) {
	value := strings.TrimSpace(cloudflare.Getenv(key))
	if value == "" {
		return "", false
	}
	return value, true
}
