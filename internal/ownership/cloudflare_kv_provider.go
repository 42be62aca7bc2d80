//go:build js && wasm

package ownership

import (
	"encoding/json"
	"fmt"

	"github.com/dvcrn/indexnow/indexnow"
	"github.com/dvcrn/indexnow/internal/logger"
	"github.com/syumai/workers/cloudflare/kv"
)

const (
	kvNamespace = "indexnow_kv"
	kvEntry     = "indexnow_ownership"
)

// CloudflareKVProvider implements Provider using Cloudflare KV storage
type CloudflareKVProvider struct {
	kvStore *kv.Namespace
}

// NewCloudflareKVProvider binds the KV namespace configured in wrangler.toml
func NewCloudflareKVProvider() (*CloudflareKVProvider, error) {
	kvStore, err := kv.NewNamespace(kvNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KV namespace: %w", err)
	}

	return &CloudflareKVProvider{kvStore: kvStore}, nil
}

// GetOwnership retrieves the key from Cloudflare KV
func (c *CloudflareKVProvider) GetOwnership() (*indexnow.Ownership, error) {
	raw, err := c.kvStore.GetString(kvEntry, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get key from KV: %w", err)
	}
	if raw == "" {
		return nil, ErrNoOwnership
	}

	var o indexnow.Ownership
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("failed to parse key JSON: %w", err)
	}
	if o.Key == "" {
		return nil, ErrNoOwnership
	}
	return &o, nil
}

// SaveOwnership stores the key in Cloudflare KV
func (c *CloudflareKVProvider) SaveOwnership(o *indexnow.Ownership) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	if err := c.kvStore.PutString(kvEntry, string(raw), nil); err != nil {
		return fmt.Errorf("failed to store key in KV: %w", err)
	}

	log := logger.For("ownership")
	log.Info().Msg("Saved IndexNow key to Cloudflare KV")
	return nil
}

// Name returns the provider name
func (c *CloudflareKVProvider) Name() string {
	return "CloudflareKVProvider"
}
