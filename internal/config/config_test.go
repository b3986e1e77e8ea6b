package config

import (
	"context"
	"strings"
	"testing"
	"time"
)

func setValidSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_KEY", strings.Repeat("a", 32))
	t.Setenv("REFRESH_TOKEN_KEY", strings.Repeat("b", 32))
}

func TestLoadDefaults(t *testing.T) {
	setValidSecrets(t)
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessTokenTTL != 10*time.Minute {
		t.Fatalf("expected 10m access TTL, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 10*24*time.Hour {
		t.Fatalf("expected 240h refresh TTL, got %v", cfg.RefreshTokenTTL)
	}
	if cfg.IsProduction() {
		t.Fatal("default environment must not be production")
	}
	if cfg.StoreTimeout <= 0 {
		t.Fatal("store timeout must default to a positive bound")
	}
}

func TestLoadRejectsShortSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_KEY", "short")
	t.Setenv("REFRESH_TOKEN_KEY", strings.Repeat("b", 32))
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected short access key to fail validation")
	}
}

func TestLoadRejectsSharedSecret(t *testing.T) {
	key := strings.Repeat("a", 32)
	t.Setenv("ACCESS_TOKEN_KEY", key)
	t.Setenv("REFRESH_TOKEN_KEY", key)
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected identical access/refresh keys to fail validation")
	}
}

func TestLoadRejectsAccessTTLNotShorterThanRefresh(t *testing.T) {
	setValidSecrets(t)
	t.Setenv("ACCESS_TOKEN_TTL", "48h")
	t.Setenv("REFRESH_TOKEN_TTL", "24h")
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected access TTL >= refresh TTL to fail validation")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setValidSecrets(t)
	t.Setenv("DATABASE_DRIVER", "oracle")
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected unknown database driver to fail validation")
	}
}

func TestSplitListTrimsAndDropsEmpty(t *testing.T) {
	got := splitList(" http://a.example , ,http://b.example ")
	if len(got) != 2 || got[0] != "http://a.example" || got[1] != "http://b.example" {
		t.Fatalf("unexpected result: %#v", got)
	}
}
