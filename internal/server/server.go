// Package server exposes the operator API over the discovery pipeline.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/findexa/repscout/config"
	"github.com/findexa/repscout/internal/archive"
	"github.com/findexa/repscout/internal/finder"
	"github.com/findexa/repscout/internal/runtime"
	"github.com/findexa/repscout/internal/store"
	"github.com/findexa/repscout/internal/telemetry"
	"github.com/findexa/repscout/provider"
	"github.com/findexa/repscout/repository"
	"github.com/findexa/repscout/tools/web_fetch"
)

// Run wires the full pipeline and serves the API on addr until the process
// exits.
func Run(cfg *config.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	registry := prometheus.NewRegistry()
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	ctx := context.Background()

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		baseLogger.Printf("migrations: %v", err)
	}

	stores, err := repository.NewRedisStores(ctx, cfg.Storage.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	oracle, err := provider.NewOracle(cfg.LLM)
	if err != nil {
		return err
	}
	fetcher, err := web_fetch.NewWebFetcher(web_fetch.ChromedpFetcherType, cfg.Crawler.Timeout, cfg.Crawler.MaxChars)
	if err != nil {
		return err
	}
	pages, err := archive.New()
	if err != nil {
		return err
	}
	metrics := telemetry.NewMetrics(registry)

	fnd, err := finder.New(fetcher, oracle, stores.Ledger, stores.Sites, stores.Conversations,
		st, pages, metrics, cfg.Finder.MaxPagesPerCompany, cfg.Finder.ConcurrentThreads)
	if err != nil {
		return err
	}

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}
	h := &Handlers{
		Sites:             stores.Sites,
		Ledger:            stores.Ledger,
		Results:           st,
		Archive:           pages,
		Runner:            fnd,
		Secret:            secret,
		AdminPasswordHash: cfg.Server.AdminPasswordHash,
	}
	h.Register(e.Group("/api"))

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})
	sched := runtime.NewScheduler(fnd, cfg.Finder.Schedule, rdb)
	sched.Start()

	if addr == "" {
		addr = cfg.Server.Address
	}
	return e.Start(addr)
}
