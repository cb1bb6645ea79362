package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Cart.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %q", cfg.Cart.Currency)
	}
	if cfg.Cart.StorageKey != "b2b-marketplace-cart" {
		t.Fatalf("unexpected storage key %q", cfg.Cart.StorageKey)
	}
	if got := cfg.Cart.SlotTTL; got != 720*time.Hour {
		t.Fatalf("expected slot ttl 720h, got %v", got)
	}
	if got := cfg.Cart.IdleTTL; got != 30*time.Minute {
		t.Fatalf("expected idle ttl 30m, got %v", got)
	}
	if got := cfg.Session.TTL(); got != 43200*time.Minute {
		t.Fatalf("unexpected session ttl %v", got)
	}
	if cfg.PubSub.Enabled() {
		t.Fatalf("pubsub should be disabled without a topic")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownStorageBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, "floppy")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown storage backend to fail")
	}
}

func TestLoad_RedisBackendRequiresEndpoint(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, StorageBackendRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without url to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Cart.UsesRedis() {
		t.Fatalf("expected redis backend")
	}
}

func TestLoad_DBBackendBuildsLegacyDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartStorage, StorageBackendDB)
	t.Setenv(EnvDBHost, "db.internal")
	t.Setenv(EnvDBUser, "cart")
	t.Setenv(EnvDBName, "carts")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "postgres://cart@db.internal:5432/carts?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DB.DSN)
	}
}

func TestLoad_BadCurrency(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartCurrency, "DOLLARS")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid currency to fail")
	}
}

func TestLoad_IdleTTLBounds(t *testing.T) {
	for _, value := range []string{"0s", "-1m", "721h"} {
		setMinimalEnv(t)
		t.Setenv(EnvCartIdleTTL, value)

		if _, err := Load(); err == nil {
			t.Fatalf("expected idle ttl %s to fail", value)
		}
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvSessionSecret, "secret")
	t.Setenv(EnvCartStorage, StorageBackendMemory)
	t.Setenv(EnvCartCurrency, "USD")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvDBDSN, "")
	t.Setenv(EnvPubSubCartTopic, "")
	t.Setenv(EnvCORSOrigins, "")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

func TestLoad_CORSOriginsList(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCORSOrigins, "https://buyers.packfinderz.com,https://admin.packfinderz.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.App.CORSOrigins) != 2 || cfg.App.CORSOrigins[1] != "https://admin.packfinderz.com" {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
}
