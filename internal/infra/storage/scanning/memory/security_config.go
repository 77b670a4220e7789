package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/pkg/config"
)

var _ scanning.SecurityConfigRepository = (*SecurityConfigStore)(nil)

// SecurityConfigStore holds a single security configuration document.
type SecurityConfigStore struct {
	mu  sync.RWMutex
	cfg *config.SecurityConfig
}

// NewSecurityConfigStore creates a store, optionally seeded with cfg.
func NewSecurityConfigStore(cfg *config.SecurityConfig) *SecurityConfigStore {
	s := new(SecurityConfigStore)
	if cfg != nil {
		s.cfg = copyConfig(cfg)
	}
	return s
}

// GetSecurityConfig returns a copy of the stored document.
func (s *SecurityConfigStore) GetSecurityConfig(ctx context.Context) (*config.SecurityConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil, checks.ErrSecurityConfigNotFound
	}
	return copyConfig(s.cfg), nil
}

// SaveSecurityConfig replaces the stored document.
func (s *SecurityConfigStore) SaveSecurityConfig(ctx context.Context, cfg *config.SecurityConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = copyConfig(cfg)
	return nil
}

func copyConfig(cfg *config.SecurityConfig) *config.SecurityConfig {
	c := *cfg
	c.Web.CORSAllowedOrigins = slices.Clone(cfg.Web.CORSAllowedOrigins)
	c.API.AllowedUploadTypes = slices.Clone(cfg.API.AllowedUploadTypes)
	return &c
}
