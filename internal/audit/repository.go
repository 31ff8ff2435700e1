package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE audit_events (
//	  id            UUID PRIMARY KEY,
//	  tenant_id     TEXT,
//	  type          TEXT NOT NULL,
//	  provider      TEXT NOT NULL,
//	  ip_address    TEXT,
//	  call_id       TEXT,
//	  phone_line_id TEXT,
//	  rule_id       TEXT,
//	  outcome       TEXT,
//	  message       TEXT,
//	  metadata      JSONB,
//	  created_at    TIMESTAMPTZ NOT NULL
//	);

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events
  (id, tenant_id, type, provider, ip_address, call_id, phone_line_id, rule_id, outcome, message, metadata, created_at)
VALUES
  ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, NULLIF($11, '')::jsonb, $12)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.TenantID,
		string(e.Type),
		e.Provider,
		e.IPAddress,
		e.CallID,
		e.PhoneLineID,
		e.RuleID,
		e.Outcome,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}
