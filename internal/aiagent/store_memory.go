package aiagent

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory ConfigStore useful for tests.
type MemoryStore struct {
	mu        sync.RWMutex
	configs   map[string]ProviderConfig
	providers map[string][]Provider // tenant_id -> providers
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		configs:   map[string]ProviderConfig{},
		providers: map[string][]Provider{},
	}
}

// Put registers a provider and its config for the config's tenant.
func (s *MemoryStore) Put(p Provider, cfg ProviderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.ID = p.ID
	s.configs[p.ID] = cfg
	s.providers[cfg.TenantID] = append(s.providers[cfg.TenantID], p)
}

func (s *MemoryStore) GetAIProviderConfig(ctx context.Context, id string) (*ProviderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (s *MemoryStore) GetProvidersForRouting(ctx context.Context, tenantID, kind string) ([]Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Provider
	for _, p := range s.providers[tenantID] {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out, nil
}
