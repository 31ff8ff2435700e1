package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"crm-telephony/pkg/logger"
	"crm-telephony/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Check is one named dependency check for readiness.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

func PostgresCheck(db *sql.DB, timeout time.Duration) Check {
	return Check{Name: "postgres", Fn: func(ctx context.Context) error {
		return utils.HealthCheck(ctx, db, timeout)
	}}
}

func RedisCheck(rdb redis.UniversalClient, timeout time.Duration) Check {
	return Check{Name: "redis", Fn: func(ctx context.Context) error {
		return utils.RedisHealthCheck(ctx, rdb, timeout)
	}}
}

// Health reports liveness only.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness returns 503 while any dependency check fails.
func Readiness(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := gin.H{}
		for _, chk := range checks {
			if err := chk.Fn(c.Request.Context()); err != nil {
				logger.FromGin(c).Warn("readiness check failed", "check", chk.Name, "err", err)
				results[chk.Name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[chk.Name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "unavailable"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
