package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"school-sos-go/pkg/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "development")

	cfg, err := Load(logger.Nop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %q", cfg.HTTPPort)
	}
	if cfg.Auth.RoleCacheTTL != time.Minute {
		t.Fatalf("expected 1m role cache ttl, got %v", cfg.Auth.RoleCacheTTL)
	}
	if cfg.Identity.Provider != "local" || cfg.Blob.Provider != "fs" {
		t.Fatalf("expected local/fs providers, got %q/%q", cfg.Identity.Provider, cfg.Blob.Provider)
	}
	if string(cfg.Auth.SigningSecret()) == "" {
		t.Fatalf("expected development signing secret")
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := Load(logger.Nop()); err == nil {
		t.Fatalf("expected error without AUTH_JWT_SECRET")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "development")
	t.Setenv("IDENTITY_PROVIDER", "ldap")

	if _, err := Load(logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	content := "HTTP_PORT=9999\nDB_NAME=\"from_file\"\n# comment\nREDIS_ADDR=localhost:6379 # inline\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(nested)
	t.Setenv("ENV", "development")
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")
	t.Setenv("REDIS_ADDR", "")
	os.Unsetenv("REDIS_ADDR")

	cfg, err := Load(logger.Nop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "7000" {
		t.Fatalf("expected env to win, got %q", cfg.HTTPPort)
	}
	if cfg.DB.Name != "from_file" {
		t.Fatalf("expected value from .env, got %q", cfg.DB.Name)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected inline comment stripped, got %q", cfg.Redis.Addr)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")
	got := getEnvList("CORS_ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}
