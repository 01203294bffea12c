package config

import (
	"errors"
	"strconv"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Returns    ReturnsConfig
	Recompute  RecomputeConfig
	Commission CommissionConfig
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

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReturnsConfig holds the evidence policy resolved once at startup.
// DefaultEvidence applies when no category override matches.
type ReturnsConfig struct {
	DefaultEvidence map[string]int
	EvidenceByCat   map[string]map[string]int
	MaxRetryOnStale int
}

// RecomputeConfig tunes windowed batch recomputation.
type RecomputeConfig struct {
	ChunkSize        int
	ScheduleEnabled  bool
	ScheduleInterval time.Duration
	ScheduleWindow   time.Duration
	SummaryCacheTTL  time.Duration
	WorkerRetries    int
}

// CommissionConfig gates the rule admin API.
type CommissionConfig struct {
	RuleAdminEnabled bool
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
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Returns = ReturnsConfig{
		DefaultEvidence: parseEvidencePolicy(v.GetString("RETURNS_DEFAULT_EVIDENCE")),
		EvidenceByCat:   parseEvidenceOverrides(v.GetString("RETURNS_EVIDENCE_OVERRIDES")),
		MaxRetryOnStale: v.GetInt("RETURNS_MAX_RETRY_ON_STALE"),
	}

	cfg.Recompute = RecomputeConfig{
		ChunkSize:        v.GetInt("RECOMPUTE_CHUNK_SIZE"),
		ScheduleEnabled:  v.GetBool("RECOMPUTE_SCHEDULE_ENABLED"),
		ScheduleInterval: parseDuration(v.GetString("RECOMPUTE_SCHEDULE_INTERVAL"), 6*time.Hour),
		ScheduleWindow:   parseDuration(v.GetString("RECOMPUTE_SCHEDULE_WINDOW"), 48*time.Hour),
		SummaryCacheTTL:  parseDuration(v.GetString("RECOMPUTE_SUMMARY_CACHE_TTL"), 10*time.Minute),
		WorkerRetries:    v.GetInt("RECOMPUTE_WORKER_RETRIES"),
	}

	cfg.Commission = CommissionConfig{
		RuleAdminEnabled: v.GetBool("ENABLE_COMMISSION_RULE_ADMIN"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "mkt_backoffice")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RETURNS_DEFAULT_EVIDENCE", "photo:1")
	v.SetDefault("RETURNS_EVIDENCE_OVERRIDES", "")
	v.SetDefault("RETURNS_MAX_RETRY_ON_STALE", 1)

	v.SetDefault("RECOMPUTE_CHUNK_SIZE", 200)
	v.SetDefault("RECOMPUTE_SCHEDULE_ENABLED", false)
	v.SetDefault("RECOMPUTE_SCHEDULE_INTERVAL", "6h")
	v.SetDefault("RECOMPUTE_SCHEDULE_WINDOW", "48h")
	v.SetDefault("RECOMPUTE_SUMMARY_CACHE_TTL", "10m")
	v.SetDefault("RECOMPUTE_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_COMMISSION_RULE_ADMIN", true)
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

// parseEvidencePolicy reads "photo:2,signature:1" into a type->count map.
func parseEvidencePolicy(raw string) map[string]int {
	result := make(map[string]int)
	for _, pair := range splitAndTrim(raw) {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || count < 0 {
			continue
		}
		result[strings.TrimSpace(parts[0])] = count
	}
	return result
}

// parseEvidenceOverrides reads "electronics=photo:2|video:1;furniture=photo:3"
// into a category->policy map.
func parseEvidenceOverrides(raw string) map[string]map[string]int {
	result := make(map[string]map[string]int)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		policy := parseEvidencePolicy(strings.ReplaceAll(parts[1], "|", ","))
		if len(policy) > 0 {
			result[strings.TrimSpace(parts[0])] = policy
		}
	}
	return result
}
