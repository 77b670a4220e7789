package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/infra/storage"
	"github.com/ahrav/secaudit/pkg/config"
)

func TestSecurityConfigStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	db, cleanup := storage.SetupTestContainer(t)
	defer cleanup()

	store := NewSecurityConfigStore(db, storage.NoOpTracer())
	ctx := context.Background()

	_, err := store.GetSecurityConfig(ctx)
	assert.ErrorIs(t, err, checks.ErrSecurityConfigNotFound)

	cfg := &config.SecurityConfig{}
	cfg.Authentication.MFAEnabled = true
	cfg.Web.CORSAllowedOrigins = []string{"https://admin.example.com"}
	require.NoError(t, store.SaveSecurityConfig(ctx, cfg))

	cfg.Access.AdminCount = 2
	require.NoError(t, store.SaveSecurityConfig(ctx, cfg))

	loaded, err := store.GetSecurityConfig(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Authentication.MFAEnabled)
	assert.Equal(t, 2, loaded.Access.AdminCount)
	assert.Equal(t, []string{"https://admin.example.com"}, loaded.Web.CORSAllowedOrigins)
}
