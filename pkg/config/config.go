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
	Env       string
	Port      int
	APIPrefix string

	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Schedule ScheduleConfig
	Search   SearchConfig
	Exports  ExportsConfig
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ScheduleConfig carries the academic calendar constants.
type ScheduleConfig struct {
	OpenHour       int
	CloseHour      int
	SemesterWeeks  int
	DefaultCredits int
	MaxCredits     int
}

// SearchConfig tunes the combination search workers and result retention.
type SearchConfig struct {
	Workers   int
	ResultTTL time.Duration
	CacheTTL  time.Duration
}

// ExportsConfig controls where generated calendar/PDF files land.
type ExportsConfig struct {
	StorageDir string
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

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schedule = ScheduleConfig{
		OpenHour:       v.GetInt("SCHEDULE_OPEN_HOUR"),
		CloseHour:      v.GetInt("SCHEDULE_CLOSE_HOUR"),
		SemesterWeeks:  v.GetInt("SCHEDULE_SEMESTER_WEEKS"),
		DefaultCredits: v.GetInt("SCHEDULE_DEFAULT_CREDITS"),
		MaxCredits:     v.GetInt("SCHEDULE_MAX_CREDITS"),
	}

	cfg.Search = SearchConfig{
		Workers:   v.GetInt("SEARCH_WORKERS"),
		ResultTTL: parseDuration(v.GetString("SEARCH_RESULT_TTL"), 30*time.Minute),
		CacheTTL:  parseDuration(v.GetString("SEARCH_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULE_OPEN_HOUR", 7)
	v.SetDefault("SCHEDULE_CLOSE_HOUR", 22)
	v.SetDefault("SCHEDULE_SEMESTER_WEEKS", 16)
	v.SetDefault("SCHEDULE_DEFAULT_CREDITS", 3)
	v.SetDefault("SCHEDULE_MAX_CREDITS", 10)

	v.SetDefault("SEARCH_WORKERS", 1)
	v.SetDefault("SEARCH_RESULT_TTL", "30m")
	v.SetDefault("SEARCH_CACHE_TTL", "10m")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
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
