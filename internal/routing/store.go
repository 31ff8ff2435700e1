package routing

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// RuleStore lists the routing rules of a phone line. Order is not significant;
// the Matcher imposes its own.
type RuleStore interface {
	ListRules(ctx context.Context, phoneLineID string) ([]Rule, error)
}

// NOTE: This store assumes the following table exists:
//
//	CREATE TABLE routing_rules (
//	  id                TEXT PRIMARY KEY,
//	  phone_line_id     TEXT NOT NULL REFERENCES phone_lines(id),
//	  condition         TEXT NOT NULL,
//	  action_type       TEXT NOT NULL,
//	  action_config     JSONB,
//	  no_answer_rings   INT,
//	  priority          INT,
//	  triggered_count   BIGINT NOT NULL DEFAULT 0,
//	  last_triggered_at TIMESTAMPTZ,
//	  is_active         BOOLEAN NOT NULL DEFAULT TRUE,
//	  created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);

type PostgresRuleStore struct {
	db *sql.DB
}

func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

func (s *PostgresRuleStore) ListRules(ctx context.Context, phoneLineID string) ([]Rule, error) {
	const q = `
SELECT id, phone_line_id, condition, action_type, action_config,
       COALESCE(no_answer_rings, 0), priority, triggered_count, is_active, created_at
FROM routing_rules
WHERE phone_line_id = $1 AND is_active = TRUE
`
	rows, err := s.db.QueryContext(ctx, q, phoneLineID)
	if err != nil {
		return nil, fmt.Errorf("routing: list rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var (
			r          Rule
			cond       string
			actionType string
			config     []byte
			priority   sql.NullInt64
		)
		if err := rows.Scan(
			&r.ID,
			&r.PhoneLineID,
			&cond,
			&actionType,
			&config,
			&r.NoAnswerRings,
			&priority,
			&r.TriggeredCount,
			&r.IsActive,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("routing: scan rule: %w", err)
		}
		r.Condition = Condition(cond)
		if priority.Valid {
			p := int(priority.Int64)
			r.Priority = &p
		}
		a, err := ParseAction(actionType, config)
		if err != nil {
			return nil, fmt.Errorf("routing: rule %s: %w", r.ID, err)
		}
		r.Action = a
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("routing: list rules: %w", err)
	}
	return out, nil
}

// MemoryRuleStore is a simple in-memory RuleStore useful for tests.
type MemoryRuleStore struct {
	mu    sync.RWMutex
	rules map[string][]Rule
}

func NewMemoryRuleStore(rules ...Rule) *MemoryRuleStore {
	s := &MemoryRuleStore{rules: map[string][]Rule{}}
	for _, r := range rules {
		s.Put(r)
	}
	return s
}

func (s *MemoryRuleStore) Put(r Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.PhoneLineID] = append(s.rules[r.PhoneLineID], r)
}

func (s *MemoryRuleStore) ListRules(ctx context.Context, phoneLineID string) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, len(s.rules[phoneLineID]))
	copy(out, s.rules[phoneLineID])
	return out, nil
}
