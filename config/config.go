package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	AWS          AWSConfig
	Certificates CertificatesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/trainingcenter?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns           int
	MinConns           int
	MaxConnLifetimeMin int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds validation settings for tokens issued by the identity provider.
type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the certificates bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CertificatesBucket   string
	PresignExpireMinutes int
}

// CertificatesConfig controls certificate issuance.
type CertificatesConfig struct {
	IssuerName    string
	NumberPrefix  string
	Timezone      string
	AsyncEnabled  bool
	SweepSchedule string // empty disables the sweeper
	LookbackHours int
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

// StorageEnabled reports whether certificate documents should be stored in S3.
func (c AWSConfig) StorageEnabled() bool {
	return c.Region != "" && c.CertificatesBucket != ""
}

// Lookback returns the sweep window.
func (c CertificatesConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// Location returns the timezone certificates are dated in.
func (c CertificatesConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 60),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", "postgres"),
			Password:           getEnv("DB_PASSWORD", "postgres"),
			DBName:             getEnv("DB_NAME", "trainingcenter"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxConns:           getEnvInt("DB_MAX_CONNS", 10),
			MinConns:           getEnvInt("DB_MIN_CONNS", 1),
			MaxConnLifetimeMin: getEnvInt("DB_MAX_CONN_LIFETIME_MIN", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			Issuer:      getEnv("JWT_ISSUER", ""),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CertificatesBucket:   getEnv("AWS_S3_CERTIFICATES_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Certificates: CertificatesConfig{
			IssuerName:    getEnv("CERT_ISSUER_NAME", "Training Center"),
			NumberPrefix:  getEnv("CERT_NUMBER_PREFIX", "TC"),
			Timezone:      getEnv("CERT_TIMEZONE", "UTC"),
			AsyncEnabled:  getEnvBool("CERT_ASYNC_ENABLED", true),
			SweepSchedule: getEnv("CERT_SWEEP_SCHEDULE", "*/15 * * * *"),
			LookbackHours: getEnvInt("CERT_SWEEP_LOOKBACK_HOURS", 48),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Certificates.LookbackHours <= 0 {
		return fmt.Errorf("CERT_SWEEP_LOOKBACK_HOURS must be positive")
	}
	if _, err := c.Certificates.Location(); err != nil {
		return fmt.Errorf("CERT_TIMEZONE: %w", err)
	}
	return nil
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

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
