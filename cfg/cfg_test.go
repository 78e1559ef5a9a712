package cfg

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Cfg {
	return &Cfg{
		Port:           "8080",
		Environment:    "development",
		LogLevel:       "info",
		DatabasePath:   ":memory:",
		LRUCacheSize:   1000,
		ViewMode:       ViewModeOpenMultiple,
		ContextTimeout: 5 * time.Second,
		RateLimit:      RateLimitCfg{RPM: 60, Burst: 10, ConservativeLimit: 5},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Cfg)
		want   string
	}{
		{"empty port", func(c *Cfg) { c.Port = "" }, "PORT"},
		{"non-numeric port", func(c *Cfg) { c.Port = "eighty" }, "PORT"},
		{"empty db path", func(c *Cfg) { c.DatabasePath = "" }, "DATABASE_PATH"},
		{"db path escape", func(c *Cfg) { c.DatabasePath = "/etc/passwd" }, "DATABASE_PATH"},
		{"bad redis scheme", func(c *Cfg) { c.RedisURL = "http://localhost" }, "REDIS_URL"},
		{"rediss without tls", func(c *Cfg) { c.RedisURL = "rediss://host"; c.RedisTLS = false }, "REDIS_TLS"},
		{"zero cache", func(c *Cfg) { c.LRUCacheSize = 0 }, "LRU_CACHE_SIZE"},
		{"unknown view mode", func(c *Cfg) { c.ViewMode = "sometimes" }, "VIEW_MODE"},
		{"authenticated views without auth", func(c *Cfg) { c.ViewMode = ViewModeAuthenticatedOnce }, "AUTH_ENABLED"},
		{"auth without endpoint", func(c *Cfg) { c.AuthEnabled = true }, "AUTH_ENDPOINT"},
		{"zero rpm", func(c *Cfg) { c.RateLimit.RPM = 0 }, "RATE_LIMIT_RPM"},
		{"bad trusted proxy", func(c *Cfg) { c.TrustedProxies = []string{"not-an-ip"} }, "TRUSTED_PROXIES"},
		{"bad proxy cidr", func(c *Cfg) { c.TrustedProxies = []string{"10.0.0.0/99"} }, "TRUSTED_PROXIES"},
		{"production without metrics creds", func(c *Cfg) { c.Environment = "production" }, "METRICS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := Validate(c)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %s", err.Error(), tc.want)
			}
		})
	}
}

func TestValidateAuthenticatedOnce(t *testing.T) {
	c := validConfig()
	c.ViewMode = ViewModeAuthenticatedOnce
	c.AuthEnabled = true
	c.AuthEndpoint = "http://identity.internal"
	if err := Validate(c); err != nil {
		t.Fatalf("authenticated_once with auth enabled rejected: %v", err)
	}
}

func TestValidateProductionWithMetricsCreds(t *testing.T) {
	c := validConfig()
	c.Environment = "production"
	c.MetricsUser = "ops"
	c.MetricsPass = NewSecret("secret")
	if err := Validate(c); err != nil {
		t.Fatalf("production config rejected: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.Port == "" || c.LogLevel == "" {
		t.Error("expected defaults for unset variables")
	}
	if c.ViewMode != ViewModeOpenMultiple && c.ViewMode != ViewModeAuthenticatedOnce {
		t.Errorf("unexpected default view mode %q", c.ViewMode)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("VIEW_MODE", ViewModeAuthenticatedOnce)
	t.Setenv("LRU_CACHE_SIZE", "50")
	t.Setenv("DOCUMENTS_ENABLED", "true")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 192.168.0.0/16")
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if c.ViewMode != ViewModeAuthenticatedOnce {
		t.Errorf("unexpected view mode %q", c.ViewMode)
	}
	if c.LRUCacheSize != 50 {
		t.Errorf("unexpected cache size %d", c.LRUCacheSize)
	}
	if !c.DocumentsEnabled {
		t.Error("DOCUMENTS_ENABLED not parsed")
	}
	if len(c.TrustedProxies) != 2 || c.TrustedProxies[0] != "10.0.0.1" {
		t.Errorf("unexpected proxies %v", c.TrustedProxies)
	}
}

func TestLoadRejectsBadInteger(t *testing.T) {
	t.Setenv("LRU_CACHE_SIZE", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric LRU_CACHE_SIZE")
	}
}

func TestSecretRedaction(t *testing.T) {
	s := NewSecret("hunter2")
	if s.String() != "***REDACTED***" {
		t.Errorf("secret leaked through String: %q", s.String())
	}
	if s.Value() != "hunter2" {
		t.Error("Value should return the secret")
	}
	s.Wipe()
	if s.Value() == "hunter2" {
		t.Error("Wipe should zero the secret")
	}
}
