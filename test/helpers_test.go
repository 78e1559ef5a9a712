package test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/hkauso/pastemd/cfg"
	"github.com/hkauso/pastemd/svc/api"
	"github.com/hkauso/pastemd/svc/auth"
	"github.com/hkauso/pastemd/svc/cache"
	"github.com/hkauso/pastemd/svc/db"
	"github.com/hkauso/pastemd/svc/lim"
	"github.com/hkauso/pastemd/svc/svc"
)

var envLoadOnce sync.Once

func loadTestEnv() {
	envLoadOnce.Do(func() {
		paths := []string{
			".env.test",
			"../.env.test",
		}
		for _, p := range paths {
			if absPath, err := filepath.Abs(p); err == nil {
				if _, err := os.Stat(absPath); err == nil {
					if err := godotenv.Load(absPath); err == nil {
						return
					}
				}
			}
		}
	})
}

func createTestConfig() *cfg.Cfg {
	loadTestEnv()
	return &cfg.Cfg{
		Port:           "0",
		Environment:    "test",
		LogLevel:       "error",
		DatabasePath:   ":memory:",
		LRUCacheSize:   1000,
		ViewMode:       cfg.ViewModeOpenMultiple,
		PasteOwnership: true,
		ContextTimeout: 30 * time.Second,
		RateLimit: cfg.RateLimitCfg{
			RPM:               100000,
			Burst:             10000,
			ConservativeLimit: 50000,
		},
	}
}

func createTestLRU(t *testing.T, size int) *cache.LRU {
	t.Helper()
	lru, err := cache.NewLRU(size)
	if err != nil {
		t.Fatal(err)
	}
	return lru
}

func createTestPaste(t *testing.T, c *cfg.Cfg) (*svc.Paste, *db.Mem) {
	t.Helper()
	store := db.NewMem()
	return svc.NewPaste(store, createTestLRU(t, c.LRUCacheSize), auth.NewHasher(), c), store
}

type testStack struct {
	server  *api.Server
	paste   *svc.Paste
	store   *db.Mem
	limiter *lim.Limiter
}

func createTestServer(t *testing.T, c *cfg.Cfg, provider auth.Provider) *testStack {
	t.Helper()
	paste, store := createTestPaste(t, c)
	docs := svc.NewDocuments(store)
	limiter := lim.New(c.RateLimit.RPM, c.RateLimit.Burst, c.RateLimit.ConservativeLimit, nil, c.TrustedProxies)
	t.Cleanup(limiter.Stop)
	server := api.NewServer(c, paste, docs, limiter, store, nil, provider)
	return &testStack{server: server, paste: paste, store: store, limiter: limiter}
}
