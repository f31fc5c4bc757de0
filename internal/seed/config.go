package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	APIBaseURL  string
	APIKey      string
	UserID      string
	BatchSize   int
	Batches     int
	Interval    time.Duration
	HTTPTimeout time.Duration
	Seed        int64
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:  "http://localhost:8080",
		APIKey:      "",
		UserID:      "seed-user",
		BatchSize:   25,
		Batches:     1,
		Interval:    time.Second,
		HTTPTimeout: 10 * time.Second,
		Seed:        time.Now().UTC().UnixNano(),
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "TODOQL_SEED_API_URL", &cfg.APIBaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_SEED_API_KEY", &cfg.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "TODOQL_SEED_USER_ID", &cfg.UserID); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_SEED_BATCH_SIZE", &cfg.BatchSize); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "TODOQL_SEED_BATCHES", &cfg.Batches); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_SEED_INTERVAL", &cfg.Interval); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "TODOQL_SEED_HTTP_TIMEOUT", &cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "TODOQL_SEED_RANDOM_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return Config{}, fmt.Errorf("TODOQL_SEED_API_URL is required")
	}
	if cfg.BatchSize <= 0 {
		return Config{}, fmt.Errorf("TODOQL_SEED_BATCH_SIZE must be positive")
	}
	if cfg.Batches < 0 {
		return Config{}, fmt.Errorf("TODOQL_SEED_BATCHES must be non-negative")
	}
	if cfg.Interval <= 0 {
		return Config{}, fmt.Errorf("TODOQL_SEED_INTERVAL must be positive")
	}
	return cfg, nil
}

func applyString(lookup LookupFunc, key string, target *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*target = strings.TrimSpace(raw)
	return nil
}

func applyInt(lookup LookupFunc, key string, target *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func applyInt64(lookup LookupFunc, key string, target *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func applyDuration(lookup LookupFunc, key string, target *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = parsed
	return nil
}
