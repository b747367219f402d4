package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	AWS      AWSConfig
	Upload   UploadConfig
	Login    LoginConfig
	Audit    AuditConfig
}

// AppConfig holds application identity and flags.
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	URL                string // if set, used as-is
	Host               string
	Port               string
	User               string
	Password           string
	DBName             string
	SSLMode            string
	MaxConns           int
	MinConns           int
	MaxConnLifetimeMin int
	MaxConnIdleMin     int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds token signing and validation settings.
type JWTConfig struct {
	Secret              string
	Algorithm           string // HS256, HS384, HS512
	AccessExpireMinutes int
	RefreshExpireDays   int
}

// PasswordConfig holds password hashing settings.
type PasswordConfig struct {
	BcryptCost int
}

// AWSConfig holds AWS credentials and the S3 bucket for tenant assets
// (organization logos, user avatars).
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	AssetsBucket         string
	PresignExpireMinutes int
}

// UploadConfig limits logo/avatar uploads.
type UploadConfig struct {
	MaxFileSizeMB    int
	AllowedFileTypes []string // extensions without dot, e.g. png,jpg
}

// LoginConfig holds brute-force limiter settings for the login endpoint.
type LoginConfig struct {
	RateLimitEnabled bool
	MaxAttempts      int
	WindowSeconds    int
}

// AuditConfig controls audit event emission.
type AuditConfig struct {
	Enabled bool
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Flow4Ops"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Debug:   getEnvBool("DEBUG", false),
		},
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "flow4ops"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxConns:           getEnvInt("DB_MAX_CONNS", 10),
			MinConns:           getEnvInt("DB_MIN_CONNS", 2),
			MaxConnLifetimeMin: getEnvInt("DB_MAX_CONN_LIFETIME_MIN", 60),
			MaxConnIdleMin:     getEnvInt("DB_MAX_CONN_IDLE_MIN", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:              getEnv("SECRET_KEY", ""),
			Algorithm:           getEnv("JWT_ALGORITHM", "HS256"),
			AccessExpireMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
			RefreshExpireDays:   getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7),
		},
		Password: PasswordConfig{
			BcryptCost: getEnvInt("BCRYPT_COST", 12),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			AssetsBucket:         getEnv("AWS_S3_ASSETS_BUCKET", "flow4ops-assets"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Upload: UploadConfig{
			MaxFileSizeMB:    getEnvInt("MAX_FILE_SIZE_MB", 10),
			AllowedFileTypes: splitTrim(getEnv("ALLOWED_FILE_TYPES", "pdf,png,jpg,jpeg,docx,xlsx"), ","),
		},
		Login: LoginConfig{
			RateLimitEnabled: getEnvBool("LOGIN_RATE_LIMIT_ENABLED", true),
			MaxAttempts:      getEnvInt("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", 10),
			WindowSeconds:    getEnvInt("LOGIN_RATE_LIMIT_WINDOW_SEC", 60),
		},
		Audit: AuditConfig{
			Enabled: getEnvBool("AUDIT_EVENTS_ENABLED", true),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("SECRET_KEY must be set")
	}
	switch cfg.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM: %s", cfg.JWT.Algorithm)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
