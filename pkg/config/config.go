package config

import (
	"errors"
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
	Env  string
	Port int

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Mail      MailConfig
	Intake    IntakeConfig
	Challenge ChallengeConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig governs operator sessions and anti-forgery tokens.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	Issuer        string
}

// MailConfig configures the Resend transport for operations notifications.
// Any empty field leaves the dispatcher in its unconfigured (no-send) state.
type MailConfig struct {
	APIKey string
	From   string
	To     string
}

// IntakeConfig tunes submission normalisation.
type IntakeConfig struct {
	PublicIDPrefix string
	MaxPassengers  int
}

// ChallengeConfig controls the arithmetic bot-friction challenge.
// Enforce toggles server-side verification of the signed answer token;
// when false the challenge stays presentation-layer friction only.
type ChallengeConfig struct {
	Min      int
	Max      int
	Secret   string
	TokenTTL time.Duration
	Enforce  bool
}

// RateLimitConfig bounds public submission and login traffic per client address.
type RateLimitConfig struct {
	Window      time.Duration
	SubmitLimit int
	LoginLimit  int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionTTL:    parseDuration(v.GetString("SESSION_TTL"), 8*time.Hour),
		Issuer:        v.GetString("SESSION_ISSUER"),
	}

	cfg.Mail = MailConfig{
		APIKey: v.GetString("RESEND_API_KEY"),
		From:   v.GetString("MAIL_FROM"),
		To:     v.GetString("OPS_NOTIFY_TO"),
	}

	cfg.Intake = IntakeConfig{
		PublicIDPrefix: v.GetString("PUBLIC_ID_PREFIX"),
		MaxPassengers:  v.GetInt("MAX_PASSENGERS"),
	}

	cfg.Challenge = ChallengeConfig{
		Min:      v.GetInt("CHALLENGE_MIN"),
		Max:      v.GetInt("CHALLENGE_MAX"),
		Secret:   v.GetString("CHALLENGE_SECRET"),
		TokenTTL: parseDuration(v.GetString("CHALLENGE_TOKEN_TTL"), 30*time.Minute),
		Enforce:  v.GetBool("CHALLENGE_ENFORCE"),
	}

	cfg.RateLimit = RateLimitConfig{
		Window:      parseDuration(v.GetString("RATE_LIMIT_WINDOW"), 15*time.Minute),
		SubmitLimit: v.GetInt("RATE_LIMIT_SUBMIT"),
		LoginLimit:  v.GetInt("RATE_LIMIT_LOGIN"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "charter_leads")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_secret")
	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("SESSION_ISSUER", "charter-leads-api")

	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("OPS_NOTIFY_TO", "")

	v.SetDefault("PUBLIC_ID_PREFIX", "BFC")
	v.SetDefault("MAX_PASSENGERS", 19)

	v.SetDefault("CHALLENGE_MIN", 1)
	v.SetDefault("CHALLENGE_MAX", 9)
	v.SetDefault("CHALLENGE_SECRET", "dev_challenge_secret")
	v.SetDefault("CHALLENGE_TOKEN_TTL", "30m")
	v.SetDefault("CHALLENGE_ENFORCE", false)

	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("RATE_LIMIT_SUBMIT", 50)
	v.SetDefault("RATE_LIMIT_LOGIN", 8)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
