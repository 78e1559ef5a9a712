package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hkauso/pastemd/cfg"
	"github.com/hkauso/pastemd/metrics"
	"github.com/hkauso/pastemd/svc/api"
	"github.com/hkauso/pastemd/svc/auth"
	"github.com/hkauso/pastemd/svc/cache"
	"github.com/hkauso/pastemd/svc/db"
	"github.com/hkauso/pastemd/svc/lim"
	"github.com/hkauso/pastemd/svc/svc"
	"github.com/hkauso/pastemd/svc/util"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "-health" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		dbPath := os.Getenv("DATABASE_PATH")
		if dbPath == "" {
			dbPath = "pastemd.db"
		}

		sqlDB, err := db.NewSQLite(dbPath)
		if err != nil {
			os.Exit(1)
		}
		defer sqlDB.Close()

		if err := sqlDB.Ping(ctx); err != nil {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// .env is optional; real env always wins.
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	if err := cfg.Validate(c); err != nil {
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Msg("starting pastemd API")
	metrics.Init()

	sqlDB, err := db.NewSQLiteWithConfig(c.DatabasePath, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBQueryTimeout)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to initialize database")
		os.Exit(1)
	}
	defer sqlDB.Close()
	util.Info().Str("path", c.DatabasePath).Msg("database initialized")

	var rdb *db.Redis
	if c.RedisURL != "" {
		rdb, err = db.NewRedis(c.RedisURL, c)
		if err != nil {
			if c.Environment == "production" {
				util.Fatal().Err(err).Msg("CRITICAL: Redis required in production")
				os.Exit(1)
			}
			util.Warn().Err(err).Msg("redis unavailable (dev mode)")
			rdb = nil
		} else {
			util.Info().Msg("redis connected")
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var store cache.Store
	if rdb != nil {
		store = rdb
		util.Info().Msg("redis cache selected")
	} else {
		lruCache, err := cache.NewLRU(c.LRUCacheSize)
		if err != nil {
			util.Fatal().Err(err).Msg("failed to create LRU cache")
			os.Exit(1)
		}
		store = lruCache
		util.Info().Int("size", c.LRUCacheSize).Msg("LRU cache initialized")
	}

	hasher := auth.NewHasher()

	var provider auth.Provider
	if c.AuthEnabled {
		provider = auth.NewHTTPProvider(c.AuthEndpoint)
		util.Info().Str("endpoint", c.AuthEndpoint).Msg("auth provider initialized")
	}

	pasteSvc := svc.NewPaste(sqlDB, store, hasher, c)
	docSvc := svc.NewDocuments(sqlDB)
	if c.DocumentsEnabled {
		util.Info().Msg("documents API enabled")
	}

	limiter := lim.New(c.RateLimit.RPM, c.RateLimit.Burst, c.RateLimit.ConservativeLimit, rdb, c.TrustedProxies)
	defer limiter.Stop()
	util.Info().
		Int("rpm", c.RateLimit.RPM).
		Int("burst", c.RateLimit.Burst).
		Strs("trusted_proxies", c.TrustedProxies).
		Msg("rate limiter initialized")

	server := api.NewServer(c, pasteSvc, docSvc, limiter, sqlDB, rdb, provider)

	quitWAL := make(chan struct{})
	go db.StartWALMaintenance(sqlDB.DB(), quitWAL)
	util.Info().Msg("WAL maintenance worker started")

	util.Info().Str("port", c.Port).Str("environment", c.Environment).Str("view_mode", c.ViewMode).Msg("server starting")
	go func() {
		if err := server.Start(); err != nil {
			util.Fatal().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	util.Info().Msg("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("server shutdown error")
	}
	close(quitWAL)
	util.Info().Msg("shutdown complete")
}
