package aiagent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// NOTE: This store assumes the following table exists:
//
//	CREATE TABLE ai_providers (
//	  id            TEXT PRIMARY KEY,
//	  tenant_id     TEXT NOT NULL,
//	  provider_type TEXT NOT NULL,
//	  kind          TEXT NOT NULL,
//	  name          TEXT NOT NULL,
//	  credentials   JSONB NOT NULL DEFAULT '{}',
//	  is_active     BOOLEAN NOT NULL DEFAULT TRUE
//	);

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetAIProviderConfig(ctx context.Context, id string) (*ProviderConfig, error) {
	const q = `
SELECT id, tenant_id, credentials
FROM ai_providers
WHERE id = $1 AND is_active = TRUE
`
	var (
		cfg ProviderConfig
		raw []byte
	)
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&cfg.ID, &cfg.TenantID, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("aiagent: get provider config: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg.Credentials); err != nil {
			return nil, fmt.Errorf("aiagent: decode credentials: %w", err)
		}
	}
	return &cfg, nil
}

func (s *PostgresStore) GetProvidersForRouting(ctx context.Context, tenantID, kind string) ([]Provider, error) {
	const q = `
SELECT id, provider_type, kind, name
FROM ai_providers
WHERE tenant_id = $1 AND kind = $2 AND is_active = TRUE
ORDER BY name, id
`
	rows, err := s.db.QueryContext(ctx, q, tenantID, kind)
	if err != nil {
		return nil, fmt.Errorf("aiagent: list providers: %w", err)
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Type, &p.Kind, &p.Name); err != nil {
			return nil, fmt.Errorf("aiagent: scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aiagent: list providers: %w", err)
	}
	return out, nil
}
