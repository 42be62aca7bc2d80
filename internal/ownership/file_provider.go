package ownership

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvcrn/indexnow/indexnow"
	"github.com/dvcrn/indexnow/internal/env"
	"github.com/dvcrn/indexnow/internal/logger"
)

// ErrReadOnly is returned by SaveOwnership when the key comes from the environment.
var ErrReadOnly = errors.New("key is configured through INDEXNOW_KEY and cannot be changed")

// FileProvider implements Provider using a JSON file, with INDEXNOW_KEY as fallback
type FileProvider struct {
	filePath string
}

// NewFileProvider creates a file-based provider. The path is INDEXNOW_KEY_PATH or
// ~/.indexnow/key.json.
func NewFileProvider() (*FileProvider, error) {
	if path, ok := env.Get("INDEXNOW_KEY_PATH"); ok {
		return &FileProvider{filePath: path}, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &FileProvider{filePath: filepath.Join(homeDir, ".indexnow", "key.json")}, nil
}

// NewFileProviderAt creates a provider backed by the given file.
func NewFileProviderAt(path string) *FileProvider {
	return &FileProvider{filePath: path}
}

// GetOwnership reads the key file, then falls back to INDEXNOW_KEY / INDEXNOW_KEY_LOCATION
func (f *FileProvider) GetOwnership() (*indexnow.Ownership, error) {
	data, err := os.ReadFile(f.filePath)
	switch {
	case err == nil:
		o := &indexnow.Ownership{}
		if err := json.Unmarshal(data, o); err != nil {
			return nil, fmt.Errorf("failed to parse key file %s: %w", f.filePath, err)
		}
		if o.Key == "" {
			return nil, fmt.Errorf("key file %s: %w", f.filePath, ErrNoOwnership)
		}
		return o, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if key, ok := env.Get("INDEXNOW_KEY"); ok {
		return &indexnow.Ownership{
			Key:         key,
			KeyLocation: env.GetOrDefault("INDEXNOW_KEY_LOCATION", ""),
		}, nil
	}

	return nil, ErrNoOwnership
}

// SaveOwnership writes the key file unless the key is pinned by INDEXNOW_KEY
func (f *FileProvider) SaveOwnership(o *indexnow.Ownership) error {
	if _, ok := env.Get("INDEXNOW_KEY"); ok {
		if _, err := os.Stat(f.filePath); os.IsNotExist(err) {
			return ErrReadOnly
		}
	}

	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	if err := os.WriteFile(f.filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key to %s: %w", f.filePath, err)
	}

	log := logger.For("ownership")
	log.Info().Str("path", f.filePath).Msg("Saved IndexNow key")
	return nil
}

// Name returns the provider name
func (f *FileProvider) Name() string {
	return fmt.Sprintf("FileProvider(%s)", f.filePath)
}
