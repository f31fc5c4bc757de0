package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Pipeline      PipelineConfig
	History       HistoryConfig
	Archive       ArchiveConfig
	ObjectStore   ObjectStoreConfig
	Translate     TranslateConfig
	Similarity    SimilarityConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// PipelineConfig holds the compiler's own knobs. CacheThreshold is the
// intent-confidence bar a parse must clear before it is memoized.
type PipelineConfig struct {
	MinQueryLength   int
	MaxQueryLength   int
	CacheThreshold   float64
	HistoryLimit     int
	PatternLimit     int
	DefaultRowLimit  int
	ExecutionTimeout time.Duration
}

// HistoryConfig enables the durable Postgres history store. With an empty
// DSN the in-memory store is used.
type HistoryConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// ArchiveConfig controls the periodic parquet snapshot of pattern counts.
type ArchiveConfig struct {
	Enabled  bool
	Interval time.Duration
	Prefix   string
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type TranslateConfig struct {
	Enabled     bool
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type SimilarityConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("TODOQL_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid TODOQL_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "TODOQL_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_PIPELINE_MIN_QUERY_LENGTH", &cfg.Pipeline.MinQueryLength); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_PIPELINE_MAX_QUERY_LENGTH", &cfg.Pipeline.MaxQueryLength); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "TODOQL_PIPELINE_CACHE_THRESHOLD", &cfg.Pipeline.CacheThreshold); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_PIPELINE_HISTORY_LIMIT", &cfg.Pipeline.HistoryLimit); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_PIPELINE_PATTERN_LIMIT", &cfg.Pipeline.PatternLimit); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_PIPELINE_DEFAULT_ROW_LIMIT", &cfg.Pipeline.DefaultRowLimit); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_PIPELINE_EXECUTION_TIMEOUT", &cfg.Pipeline.ExecutionTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_HISTORY_DSN", &cfg.History.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_HISTORY_MAX_OPEN_CONNS", &cfg.History.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_HISTORY_MAX_IDLE_CONNS", &cfg.History.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_HISTORY_CONN_MAX_IDLE_TIME", &cfg.History.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_HISTORY_CONN_MAX_LIFETIME", &cfg.History.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TODOQL_ARCHIVE_ENABLED", &cfg.Archive.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_ARCHIVE_INTERVAL", &cfg.Archive.Interval); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_ARCHIVE_PREFIX", &cfg.Archive.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_OBJECTSTORE_REGION", &cfg.ObjectStore.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TODOQL_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TODOQL_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TODOQL_TRANSLATE_ENABLED", &cfg.Translate.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_TRANSLATE_BASE_URL", &cfg.Translate.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_TRANSLATE_API_KEY", &cfg.Translate.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_TRANSLATE_MODEL", &cfg.Translate.Model); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "TODOQL_TRANSLATE_TEMPERATURE", &cfg.Translate.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_TRANSLATE_TIMEOUT", &cfg.Translate.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TODOQL_SIMILARITY_ENABLED", &cfg.Similarity.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_SIMILARITY_BASE_URL", &cfg.Similarity.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_SIMILARITY_API_KEY", &cfg.Similarity.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_SIMILARITY_MODEL", &cfg.Similarity.Model); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_SIMILARITY_TIMEOUT", &cfg.Similarity.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TODOQL_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "TODOQL_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "TODOQL_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Pipeline.MinQueryLength <= 0 || cfg.Pipeline.MaxQueryLength <= cfg.Pipeline.MinQueryLength {
		return Config{}, fmt.Errorf("invalid pipeline query length bounds")
	}
	if cfg.Pipeline.CacheThreshold < 0 || cfg.Pipeline.CacheThreshold >= 1 {
		return Config{}, fmt.Errorf("invalid TODOQL_PIPELINE_CACHE_THRESHOLD: must be in [0,1)")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "todoql-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Pipeline: PipelineConfig{
			MinQueryLength:   5,
			MaxQueryLength:   500,
			CacheThreshold:   0.8,
			HistoryLimit:     50,
			PatternLimit:     1000,
			DefaultRowLimit:  10,
			ExecutionTimeout: 5 * time.Second,
		},
		History: HistoryConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled:  false,
			Interval: 10 * time.Minute,
			Prefix:   "patterns",
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "todoql",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Translate: TranslateConfig{
			Enabled:     false,
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-5",
			Temperature: 0.1,
			Timeout:     15 * time.Second,
		},
		Similarity: SimilarityConfig{
			Enabled: false,
			BaseURL: "http://localhost:11434",
			Model:   "text-embedding-3-small",
			Timeout: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
