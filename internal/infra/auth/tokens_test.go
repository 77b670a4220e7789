package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/config"
)

func TestTokenStore_Authenticate(t *testing.T) {
	store, err := NewTokenStore([]config.TokenConfig{
		{Token: "admin-secret", Identity: "alice", Admin: true},
		{Token: "viewer-secret", Identity: "bob"},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		want    Claims
		wantErr bool
	}{
		{name: "admin token", header: "Bearer admin-secret", want: Claims{Identity: "alice", Admin: true}},
		{name: "scheme is case insensitive", header: "bearer viewer-secret", want: Claims{Identity: "bob"}},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic YWxpY2U6cHc=", wantErr: true},
		{name: "empty token", header: "Bearer  ", wantErr: true},
		{name: "unknown token", header: "Bearer nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Authenticate(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTokenStore_Validation(t *testing.T) {
	_, err := NewTokenStore([]config.TokenConfig{{Token: "", Identity: "alice"}})
	assert.Error(t, err)

	_, err = NewTokenStore([]config.TokenConfig{
		{Token: "same", Identity: "alice"},
		{Token: "same", Identity: "bob"},
	})
	assert.Error(t, err)
}
