package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/invoicer/domain/gateway"
	"github.com/artpar/invoicer/ports"
)

// GatewaySettingsStore is an in-memory implementation of ports.GatewaySettingsStore.
type GatewaySettingsStore struct {
	mu       sync.RWMutex
	settings map[gateway.Key]gateway.Settings
}

// NewGatewaySettingsStore creates a new in-memory gateway settings store.
func NewGatewaySettingsStore() *GatewaySettingsStore {
	return &GatewaySettingsStore{settings: make(map[gateway.Key]gateway.Settings)}
}

// Get retrieves settings by key.
func (s *GatewaySettingsStore) Get(ctx context.Context, key gateway.Key) (gateway.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.settings[key]
	if !ok {
		return gateway.Settings{}, ErrNotFound
	}
	return gs, nil
}

// Save creates or replaces settings.
func (s *GatewaySettingsStore) Save(ctx context.Context, gs gateway.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[gs.Key()] = gs
	return nil
}

// ListByUser returns every gateway configured by a user, ordered by gateway.
func (s *GatewaySettingsStore) ListByUser(ctx context.Context, userID string) ([]gateway.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []gateway.Settings
	for key, gs := range s.settings {
		if key.UserID == userID {
			result = append(result, gs)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Gateway < result[j].Gateway
	})
	return result, nil
}

// Delete removes settings by key.
func (s *GatewaySettingsStore) Delete(ctx context.Context, key gateway.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.settings[key]; !ok {
		return ErrNotFound
	}
	delete(s.settings, key)
	return nil
}

// Ensure interface compliance.
var _ ports.GatewaySettingsStore = (*GatewaySettingsStore)(nil)
