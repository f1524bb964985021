package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported scope authorization modes.
const (
	AuthzModeClaims = "claims"
	AuthzModeRemote = "remote"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database       DatabaseConfig
	Redis          RedisConfig
	Cache          CacheConfig
	JWT            JWTConfig
	CORS           CORSConfig
	Log            LogConfig
	Cipher         CipherConfig
	Classification ClassificationConfig
	Authz          AuthzConfig
	Exports        ExportsConfig
	Bootstrap      BootstrapConfig
}

type DatabaseConfig struct {
	Driver           string
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	SQLitePath       string
	AutoMigrate      bool
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs the headcount read cache.
type CacheConfig struct {
	Enabled      bool
	HeadcountTTL time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CipherConfig holds the master secret every district key is derived from.
type CipherConfig struct {
	MasterKey string
}

// ClassificationConfig tunes the cohort thresholds and default delta windows.
type ClassificationConfig struct {
	YouthMinAge int
	AdultMinAge int
	WeekWindow  time.Duration
	MonthWindow time.Duration
}

// AuthzConfig selects the scope authorization collaborator.
type AuthzConfig struct {
	Mode    string
	URL     string
	Timeout time.Duration
}

// ExportsConfig toggles tabular export endpoints.
type ExportsConfig struct {
	Enabled bool
}

// BootstrapConfig seeds the first superadmin when the users table has no such account.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:           strings.ToLower(v.GetString("DB_DRIVER")),
		Host:             v.GetString("DB_HOST"),
		Port:             v.GetInt("DB_PORT"),
		User:             v.GetString("DB_USER"),
		Password:         v.GetString("DB_PASSWORD"),
		Name:             v.GetString("DB_NAME"),
		SSLMode:          v.GetString("DB_SSL_MODE"),
		MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
		SQLitePath:       v.GetString("DB_SQLITE_PATH"),
		AutoMigrate:      v.GetBool("DB_AUTO_MIGRATE"),
		StatementTimeout: parseDuration(v.GetString("DB_STATEMENT_TIMEOUT"), 15*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		HeadcountTTL: parseDuration(v.GetString("HEADCOUNT_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cipher = CipherConfig{
		MasterKey: v.GetString("CIPHER_MASTER_KEY"),
	}

	cfg.Classification = ClassificationConfig{
		YouthMinAge: v.GetInt("CLASSIFICATION_YOUTH_MIN_AGE"),
		AdultMinAge: v.GetInt("CLASSIFICATION_ADULT_MIN_AGE"),
		WeekWindow:  parseDuration(v.GetString("CLASSIFICATION_WEEK_WINDOW"), 7*24*time.Hour),
		MonthWindow: parseDuration(v.GetString("CLASSIFICATION_MONTH_WINDOW"), 30*24*time.Hour),
	}

	cfg.Authz = AuthzConfig{
		Mode:    strings.ToLower(v.GetString("AUTHZ_MODE")),
		URL:     v.GetString("AUTHZ_URL"),
		Timeout: parseDuration(v.GetString("AUTHZ_TIMEOUT"), 3*time.Second),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("BOOTSTRAP_ADMIN_EMAIL"))),
		AdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		AdminName:     v.GetString("BOOTSTRAP_ADMIN_NAME"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "officer_registry")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_SQLITE_PATH", "./officer_registry.db")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "15s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("HEADCOUNT_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "officer-registry")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CIPHER_MASTER_KEY", "dev_cipher_master_key_change_me_0123456789")

	v.SetDefault("CLASSIFICATION_YOUTH_MIN_AGE", 13)
	v.SetDefault("CLASSIFICATION_ADULT_MIN_AGE", 18)
	v.SetDefault("CLASSIFICATION_WEEK_WINDOW", "168h")
	v.SetDefault("CLASSIFICATION_MONTH_WINDOW", "720h")

	v.SetDefault("AUTHZ_MODE", AuthzModeClaims)
	v.SetDefault("AUTHZ_URL", "")
	v.SetDefault("AUTHZ_TIMEOUT", "3s")

	v.SetDefault("ENABLE_EXPORTS", true)

	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")
	v.SetDefault("BOOTSTRAP_ADMIN_NAME", "Registry Administrator")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
