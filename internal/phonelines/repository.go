package phonelines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE phone_lines (
//	  id           TEXT PRIMARY KEY,
//	  tenant_id    TEXT NOT NULL,
//	  phone_number TEXT NOT NULL UNIQUE,
//	  forward_to   TEXT,
//	  provider_id  TEXT NOT NULL,
//	  is_active    BOOLEAN NOT NULL DEFAULT TRUE
//	);

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (PhoneLine, error) {
	number = NormalizeNumber(number)
	if number == "" {
		return PhoneLine{}, ErrNotFound
	}

	const q = `
SELECT id, tenant_id, phone_number, COALESCE(forward_to, ''), provider_id
FROM phone_lines
WHERE phone_number = $1 AND is_active = TRUE
LIMIT 1
`
	var p PhoneLine
	if err := r.db.QueryRowContext(ctx, q, number).Scan(
		&p.ID,
		&p.TenantID,
		&p.PhoneNumber,
		&p.ForwardTo,
		&p.ProviderID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PhoneLine{}, ErrNotFound
		}
		return PhoneLine{}, fmt.Errorf("phonelines: get by number: %w", err)
	}
	return p, nil
}
