package ownership

import (
	"errors"
	"fmt"

	"github.com/dvcrn/indexnow/indexnow"
	"github.com/dvcrn/indexnow/internal/logger"
)

// ErrNoOwnership is returned when no key has been stored yet.
var ErrNoOwnership = errors.New("indexnow key not found")

// Provider defines where the IndexNow key and key location are kept
type Provider interface {
	// GetOwnership retrieves the stored key, or ErrNoOwnership
	GetOwnership() (*indexnow.Ownership, error)

	// SaveOwnership persists the key
	SaveOwnership(o *indexnow.Ownership) error

	// Name returns the name of the provider for logging
	Name() string
}

// EnsureOwnership returns the stored ownership, generating and saving a new key
// when the provider has none.
func EnsureOwnership(p Provider) (*indexnow.Ownership, error) {
	o, err := p.GetOwnership()
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, ErrNoOwnership) {
		return nil, err
	}

	o = &indexnow.Ownership{Key: indexnow.GenerateKey()}
	if err := p.SaveOwnership(o); err != nil {
		return nil, fmt.Errorf("failed to save generated key: %w", err)
	}

	log := logger.For("ownership")
	log.Info().Str("provider", p.Name()).Msg("Generated new IndexNow key")
	return o, nil
}
