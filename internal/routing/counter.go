package routing

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"crm-telephony/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// TriggerCounter records that a rule was applied. Increments must be atomic in the store.
type TriggerCounter interface {
	IncrementTriggeredCount(ctx context.Context, ruleID string) error
}

// AsyncCounter runs increments off the request path.
//
// The increment outlives the request: it uses a context detached from ctx's
// cancellation, bounded by Timeout. Failures are logged and never returned.
type AsyncCounter struct {
	Counter TriggerCounter
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewAsyncCounter(c TriggerCounter, timeout time.Duration) *AsyncCounter {
	return &AsyncCounter{Counter: c, Timeout: timeout}
}

func (a *AsyncCounter) IncrementTriggeredCount(ctx context.Context, ruleID string) error {
	log := logger.From(ctx)
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	detached := context.WithoutCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("rule counter panicked", "rule_id", ruleID, "panic", rec)
			}
		}()

		cctx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()
		if err := a.Counter.IncrementTriggeredCount(cctx, ruleID); err != nil {
			log.Warn("rule counter increment failed", "rule_id", ruleID, "err", err)
		}
	}()
	return nil
}

// Wait blocks until in-flight increments finish. Used on shutdown.
func (a *AsyncCounter) Wait() {
	a.wg.Wait()
}

type PostgresCounter struct {
	db *sql.DB
}

func NewPostgresCounter(db *sql.DB) *PostgresCounter {
	return &PostgresCounter{db: db}
}

func (c *PostgresCounter) IncrementTriggeredCount(ctx context.Context, ruleID string) error {
	const q = `
UPDATE routing_rules
SET triggered_count = triggered_count + 1, last_triggered_at = NOW()
WHERE id = $1
`
	res, err := c.db.ExecContext(ctx, q, ruleID)
	if err != nil {
		return fmt.Errorf("routing: increment rule %s: %w", ruleID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("routing: increment rule %s: not found", ruleID)
	}
	return nil
}

// incrementRuleScript bumps the counter and stamps the last trigger time in one round trip.
//
// KEYS[1] = stats hash key
// ARGV[1] = unix seconds
var incrementRuleScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], 'triggered_count', 1)
redis.call('HSET', KEYS[1], 'last_triggered_at', ARGV[1])
return n
`)

// RedisCounter keeps trigger counts in a per-rule hash for a separate job to fold into Postgres.
type RedisCounter struct {
	rdb redis.UniversalClient
	Now func() time.Time
}

func NewRedisCounter(rdb redis.UniversalClient) *RedisCounter {
	return &RedisCounter{rdb: rdb, Now: time.Now}
}

func RuleStatsKey(ruleID string) string {
	return "routing:rule:" + ruleID + ":stats"
}

func (c *RedisCounter) IncrementTriggeredCount(ctx context.Context, ruleID string) error {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if err := incrementRuleScript.Run(ctx, c.rdb, []string{RuleStatsKey(ruleID)}, now().Unix()).Err(); err != nil {
		return fmt.Errorf("routing: increment rule %s: %w", ruleID, err)
	}
	return nil
}
