package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"school-sos-go/pkg/logger"
)

type Config struct {
	HTTPPort       string
	Env            string
	PublicBaseURL  string
	AllowedOrigins []string
	DB             DBConfig
	Auth           AuthConfig
	Identity       IdentityConfig
	Blob           BlobConfig
	Redis          RedisConfig
	Reconcile      ReconcileConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	JWTSecret    string
	JWTIssuer    string
	SessionTTL   time.Duration
	RoleCacheTTL time.Duration
	CookieSecure bool
}

// IdentityConfig selects the credential backend. "local" keeps bcrypt
// hashes in postgres; "supabase" delegates to a GoTrue instance.
type IdentityConfig struct {
	Provider           string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseAnonKey    string
	Timeout            time.Duration
}

type BlobConfig struct {
	Provider       string
	Dir            string
	PublicURL      string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
	MaxUploadBytes int64
	Timeout        time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ReconcileConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	DryRun   bool
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "school_sos"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer:    getEnv("AUTH_JWT_ISSUER", "school-sos"),
			SessionTTL:   getEnvDuration("AUTH_SESSION_TTL", 12*time.Hour),
			RoleCacheTTL: getEnvDuration("AUTH_ROLE_CACHE_TTL", time.Minute),
			CookieSecure: getEnvBool("AUTH_COOKIE_SECURE", false),
		},
		Identity: IdentityConfig{
			Provider:           strings.ToLower(getEnv("IDENTITY_PROVIDER", "local")),
			SupabaseURL:        strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			SupabaseAnonKey:    getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
			Timeout:            getEnvDuration("IDENTITY_TIMEOUT", 5*time.Second),
		},
		Blob: BlobConfig{
			Provider:       strings.ToLower(getEnv("BLOB_PROVIDER", "fs")),
			Dir:            getEnv("BLOB_DIR", "./data/blobs"),
			PublicURL:      strings.TrimRight(getEnv("BLOB_PUBLIC_URL", "http://localhost:8080/files"), "/"),
			SupabaseURL:    strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			SupabaseKey:    getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			SupabaseBucket: getEnv("BLOB_BUCKET", "student-photos"),
			MaxUploadBytes: int64(getEnvInt("BLOB_MAX_UPLOAD_BYTES", 5<<20)),
			Timeout:        getEnvDuration("BLOB_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Reconcile: ReconcileConfig{
			Interval: getEnvDuration("RECONCILE_INTERVAL", time.Hour),
			Timeout:  getEnvDuration("RECONCILE_TIMEOUT", 2*time.Minute),
			DryRun:   getEnvBool("RECONCILE_DRY_RUN", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Env != "development" && c.Env != "test" {
			return fmt.Errorf("AUTH_JWT_SECRET is required outside development")
		}
	}
	switch c.Identity.Provider {
	case "local":
	case "supabase":
		if c.Identity.SupabaseURL == "" || c.Identity.SupabaseServiceKey == "" {
			return fmt.Errorf("supabase identity provider requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.Identity.Provider)
	}
	switch c.Blob.Provider {
	case "fs", "supabase":
	default:
		return fmt.Errorf("unknown BLOB_PROVIDER %q", c.Blob.Provider)
	}
	return nil
}

// SigningSecret falls back to a fixed development secret so local runs work
// without setup; validate rejects that outside development.
func (c AuthConfig) SigningSecret() []byte {
	if c.JWTSecret == "" {
		return []byte("school-sos-development-secret")
	}
	return []byte(c.JWTSecret)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
