package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
	"github.com/ahrav/secaudit/internal/infra/storage"
	"github.com/ahrav/secaudit/pkg/config"
)

var _ scanning.SecurityConfigRepository = (*securityConfigStore)(nil)

// securityConfigStore keeps the single security configuration document in a
// one-row JSONB table.
type securityConfigStore struct {
	db     *pgxpool.Pool
	tracer trace.Tracer
}

// NewSecurityConfigStore creates a PostgreSQL-backed security configuration store.
func NewSecurityConfigStore(pool *pgxpool.Pool, tracer trace.Tracer) *securityConfigStore {
	return &securityConfigStore{db: pool, tracer: tracer}
}

// GetSecurityConfig loads the stored document, returning
// checks.ErrSecurityConfigNotFound when none has been saved.
func (s *securityConfigStore) GetSecurityConfig(ctx context.Context) (*config.SecurityConfig, error) {
	var cfg *config.SecurityConfig
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_security_config", withAttrs(), func(ctx context.Context) error {
		var doc []byte
		err := s.db.QueryRow(ctx, `SELECT document FROM security_config WHERE id = 1`).Scan(&doc)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return checks.ErrSecurityConfigNotFound
			}
			return fmt.Errorf("GetSecurityConfig query error: %w", err)
		}

		cfg = new(config.SecurityConfig)
		if err := json.Unmarshal(doc, cfg); err != nil {
			return fmt.Errorf("decode security config: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveSecurityConfig upserts the document.
func (s *securityConfigStore) SaveSecurityConfig(ctx context.Context, cfg *config.SecurityConfig) error {
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.save_security_config", withAttrs(), func(ctx context.Context) error {
		doc, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode security config: %w", err)
		}

		_, err = s.db.Exec(ctx, `INSERT INTO security_config (id, document, updated_at)
			VALUES (1, $1, NOW())
			ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
			doc,
		)
		if err != nil {
			return fmt.Errorf("SaveSecurityConfig upsert error: %w", err)
		}
		return nil
	})
}
