package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-telephony/internal/aiagent"
	"crm-telephony/internal/audit"
	"crm-telephony/internal/config"
	"crm-telephony/internal/phonelines"
	"crm-telephony/internal/routing"
	"crm-telephony/pkg/logger"
	"crm-telephony/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, logger.Options{File: cfg.App.LogFile})
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var lines phonelines.Repository = phonelines.NewPostgresRepository(db)
	if cfg.Routing.PhoneLineCacheTTL > 0 {
		lines = phonelines.NewCachedRepository(lines, rdb, cfg.Routing.PhoneLineCacheTTL)
	}

	contexts, err := newContextBuilder(cfg.Routing, rdb)
	if err != nil {
		log.Error("routing context init failed", "err", err)
		os.Exit(1)
	}

	counter := routing.NewAsyncCounter(newTriggerCounter(cfg.Routing, db, rdb), cfg.Routing.CounterTimeout)

	engine := &routing.Engine{
		PhoneLines: lines,
		Contexts:   contexts,
		Matcher:    &routing.Matcher{Rules: routing.NewPostgresRuleStore(db)},
		Counter:    counter,
		Dispatcher: &routing.Dispatcher{AI: &aiagent.Resolver{
			Store:   aiagent.NewPostgresStore(db),
			Factory: aiagent.NewFactory(cfg.AI.RequestTimeout),
			Timeout: cfg.AI.RequestTimeout,
		}},
	}
	auditLog := routing.AuditAdapter{Audit: audit.NewService(audit.NewPostgresRepo(db))}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	webhooks, err := registerRoutes(r, cfg, routeDeps{
		Engine: engine,
		Audit:  auditLog,
		DB:     db,
		Redis:  rdb,
	})
	if err != nil {
		log.Error("route init failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	// Drain background writes before the pools close.
	for _, h := range webhooks {
		h.Wait()
	}
	counter.Wait()

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

func newTriggerCounter(cfg config.RoutingConfig, db *sql.DB, rdb redis.UniversalClient) routing.TriggerCounter {
	if cfg.CounterBackend == "redis" {
		return routing.NewRedisCounter(rdb)
	}
	return routing.NewPostgresCounter(db)
}

func newContextBuilder(cfg config.RoutingConfig, rdb redis.UniversalClient) (routing.FlagContextBuilder, error) {
	b := routing.FlagContextBuilder{}
	if len(cfg.BusinessDays) > 0 {
		hours, err := routing.NewBusinessHours(cfg.BusinessDays, cfg.BusinessStart, cfg.BusinessEnd, cfg.BusinessTimezone)
		if err != nil {
			return b, err
		}
		b.Offline = hours
	}
	if cfg.NewCallerWindow > 0 {
		b.NewCaller = routing.SeenCallers{Redis: rdb, Window: cfg.NewCallerWindow}
	}
	return b, nil
}
