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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	Session  SessionConfig
	CORS     CORSConfig
	Log      LogConfig
	Pictures PicturesConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis backed read cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// JWTConfig holds session token parameters. Secret has no default: an empty
// secret seals the token issuer.
type JWTConfig struct {
	Secret       string
	Issuer       string
	Expiration   time.Duration
	RefreshAfter time.Duration
}

// SessionConfig controls the cookie carrying the session token.
type SessionConfig struct {
	CookieName string
	Secure     bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PicturesConfig controls profile picture storage and signed download links.
type PicturesConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	MaxFileSize     int64
}

// SeedConfig holds bootstrap values for a fresh database.
type SeedConfig struct {
	AdminPassword string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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

	cfg.Server = ServerConfig{
		ReadTimeout:  parseDuration(v.GetString("SERVER_READ_TIMEOUT"), 15*time.Second),
		WriteTimeout: parseDuration(v.GetString("SERVER_WRITE_TIMEOUT"), 30*time.Second),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:       strings.TrimSpace(v.GetString("JWT_SECRET")),
		Issuer:       v.GetString("JWT_ISSUER"),
		Expiration:   parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshAfter: parseDuration(v.GetString("JWT_REFRESH_AFTER"), time.Hour),
	}

	cfg.Session = SessionConfig{
		CookieName: v.GetString("SESSION_COOKIE_NAME"),
		Secure:     v.GetBool("SESSION_COOKIE_SECURE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxPicture := v.GetInt64("PICTURES_MAX_SIZE")
	if maxPicture <= 0 {
		maxPicture = 2 * 1024 * 1024
	}
	cfg.Pictures = PicturesConfig{
		StorageDir:      v.GetString("PICTURES_DIR"),
		SignedURLSecret: v.GetString("PICTURES_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("PICTURES_SIGNED_URL_TTL"), time.Hour),
		MaxFileSize:     maxPicture,
	}
	if cfg.Pictures.SignedURLSecret == "" {
		cfg.Pictures.SignedURLSecret = cfg.JWT.Secret
	}

	cfg.Seed = SeedConfig{
		AdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edutrack")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "edutrack")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_REFRESH_AFTER", "1h")

	v.SetDefault("SESSION_COOKIE_NAME", "edutrack_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PICTURES_DIR", "./uploads/pictures")
	v.SetDefault("PICTURES_SIGNED_URL_SECRET", "")
	v.SetDefault("PICTURES_SIGNED_URL_TTL", "1h")
	v.SetDefault("PICTURES_MAX_SIZE", 2*1024*1024)

	v.SetDefault("SEED_ADMIN_PASSWORD", "password")
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
