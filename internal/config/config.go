// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database engines selectable through DB_ENGINE.
const (
	EngineSQLite = "sqlite"
	EngineMySQL  = "mysql"
)

type Config struct {
	Port         string `env:"PORT" envDefault:"8081"`
	FrontendURL  string `env:"FRONTEND_URL"`
	FrontendURL2 string `env:"FRONTEND_URL2"`
	TrustProxy   bool   `env:"TRUST_PROXY" envDefault:"false"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	Database Database
	Auth     Auth
	Backup   Backup
	Upload   Upload
	Redis    Redis

	CacheTTL           time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	MessageRatePerHour int           `env:"MESSAGE_RATE_PER_HOUR" envDefault:"5"`
	SeedOnStart        bool          `env:"SEED_ON_START" envDefault:"false"`

	RevalidationURL    string `env:"NEXT_REVALIDATION_URL"`
	RevalidationSecret string `env:"REVALIDATION_SECRET"`
}

type Database struct {
	Engine        string `env:"DB_ENGINE" envDefault:"sqlite"`
	DataDir       string `env:"DATA_DIR" envDefault:"./data"`
	SQLiteFile    string `env:"SQLITE_FILE" envDefault:"portfolio.db"`
	MySQLHost     string `env:"MYSQL_HOST" envDefault:"localhost"`
	MySQLPort     int    `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLUser     string `env:"MYSQL_USER" envDefault:"root"`
	MySQLPassword string `env:"MYSQL_PASSWORD"`
	MySQLDatabase string `env:"MYSQL_DATABASE" envDefault:"portfolio"`
}

// SQLitePath is the database file location for the sqlite engine.
func (d Database) SQLitePath() string {
	return filepath.Join(d.DataDir, d.SQLiteFile)
}

type Auth struct {
	JWTSecret         string        `env:"JWT_SECRET"`
	AdminPassword     string        `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	FailureDelay      time.Duration `env:"LOGIN_FAILURE_DELAY" envDefault:"1s"`
	MaxAttempts       int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	Window            time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
}

type Backup struct {
	Interval  time.Duration `env:"BACKUP_INTERVAL" envDefault:"24h"`
	Retention int           `env:"BACKUP_RETENTION" envDefault:"7"`
}

type Upload struct {
	MaxBytes       int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
	PublicBaseURL  string `env:"PUBLIC_BASE_URL"`
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOBucket    string `env:"MINIO_BUCKET" envDefault:"portfolio"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads an optional .env file and then parses the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the process environment without touching .env.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Engine {
	case EngineSQLite, EngineMySQL:
	default:
		errs = append(errs, fmt.Errorf("DB_ENGINE must be %q or %q, got %q", EngineSQLite, EngineMySQL, c.Database.Engine))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL must not be negative"))
	}
	if c.MessageRatePerHour <= 0 {
		errs = append(errs, errors.New("MESSAGE_RATE_PER_HOUR must be positive"))
	}
	if c.Backup.Retention < 1 {
		errs = append(errs, errors.New("BACKUP_RETENTION must be at least 1"))
	}
	return errors.Join(errs...)
}

// ValidateServe additionally checks the admin credentials the HTTP server needs.
func (c Config) ValidateServe() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.AdminPasswordHash == "" && c.Auth.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required"))
	}
	if c.Auth.MaxAttempts < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// AllowedOrigins returns the configured frontend origins, skipping blanks.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range []string{c.FrontendURL, c.FrontendURL2} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
