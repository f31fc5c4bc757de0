package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("todoql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Pipeline.MinQueryLength != 5 {
		t.Fatalf("Pipeline.MinQueryLength = %d", cfg.Pipeline.MinQueryLength)
	}
	if cfg.Pipeline.MaxQueryLength != 500 {
		t.Fatalf("Pipeline.MaxQueryLength = %d", cfg.Pipeline.MaxQueryLength)
	}
	if cfg.Pipeline.CacheThreshold != 0.8 {
		t.Fatalf("Pipeline.CacheThreshold = %f", cfg.Pipeline.CacheThreshold)
	}
	if cfg.Pipeline.HistoryLimit != 50 {
		t.Fatalf("Pipeline.HistoryLimit = %d", cfg.Pipeline.HistoryLimit)
	}
	if cfg.Pipeline.PatternLimit != 1000 {
		t.Fatalf("Pipeline.PatternLimit = %d", cfg.Pipeline.PatternLimit)
	}
	if cfg.Pipeline.DefaultRowLimit != 10 {
		t.Fatalf("Pipeline.DefaultRowLimit = %d", cfg.Pipeline.DefaultRowLimit)
	}
	if cfg.Pipeline.ExecutionTimeout != 5*time.Second {
		t.Fatalf("Pipeline.ExecutionTimeout = %s", cfg.Pipeline.ExecutionTimeout)
	}
	if cfg.History.DSN != "" {
		t.Fatalf("History.DSN = %q, want empty", cfg.History.DSN)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
	if cfg.Archive.Interval != 10*time.Minute {
		t.Fatalf("Archive.Interval = %s", cfg.Archive.Interval)
	}
	if cfg.Archive.Prefix != "patterns" {
		t.Fatalf("Archive.Prefix = %q", cfg.Archive.Prefix)
	}
	if cfg.ObjectStore.Endpoint != "localhost:9000" {
		t.Fatalf("ObjectStore.Endpoint = %q", cfg.ObjectStore.Endpoint)
	}
	if cfg.ObjectStore.Bucket != "todoql" {
		t.Fatalf("ObjectStore.Bucket = %q", cfg.ObjectStore.Bucket)
	}
	if cfg.Translate.Enabled {
		t.Fatal("Translate.Enabled should default to false")
	}
	if cfg.Translate.Model != "gpt-5" {
		t.Fatalf("Translate.Model = %q", cfg.Translate.Model)
	}
	if cfg.Similarity.Model != "text-embedding-3-small" {
		t.Fatalf("Similarity.Model = %q", cfg.Similarity.Model)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"TODOQL_PROFILE": "prod"})
	cfg, err := Load("todoql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
	if cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("ObjectStore.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"TODOQL_PROFILE":                    "test",
		"TODOQL_SERVICE_NAME":               "todoql-custom",
		"TODOQL_HTTP_ADDR":                  ":9999",
		"TODOQL_HTTP_READ_TIMEOUT":          "2s",
		"TODOQL_HTTP_WRITE_TIMEOUT":         "3s",
		"TODOQL_LOG_LEVEL":                  "error",
		"TODOQL_AUTH_REQUIRED":              "true",
		"TODOQL_AUTH_STATIC_KEYS":           "k1:u1:nl_reader",
		"TODOQL_PIPELINE_MIN_QUERY_LENGTH":  "3",
		"TODOQL_PIPELINE_MAX_QUERY_LENGTH":  "200",
		"TODOQL_PIPELINE_CACHE_THRESHOLD":   "0.5",
		"TODOQL_PIPELINE_HISTORY_LIMIT":     "25",
		"TODOQL_PIPELINE_PATTERN_LIMIT":     "77",
		"TODOQL_PIPELINE_DEFAULT_ROW_LIMIT": "15",
		"TODOQL_PIPELINE_EXECUTION_TIMEOUT": "2500ms",
		"TODOQL_HISTORY_DSN":                "postgres://example",
		"TODOQL_HISTORY_MAX_OPEN_CONNS":     "42",
		"TODOQL_HISTORY_MAX_IDLE_CONNS":     "17",
		"TODOQL_ARCHIVE_ENABLED":            "true",
		"TODOQL_ARCHIVE_INTERVAL":           "11m",
		"TODOQL_ARCHIVE_PREFIX":             "snapshots",
		"TODOQL_OBJECTSTORE_ENDPOINT":       "s3.example.com",
		"TODOQL_OBJECTSTORE_BUCKET":         "todoql-prod",
		"TODOQL_OBJECTSTORE_ACCESS_KEY":     "abc",
		"TODOQL_OBJECTSTORE_SECRET_KEY":     "def",
		"TODOQL_OBJECTSTORE_USE_SSL":        "true",
		"TODOQL_TRANSLATE_ENABLED":          "true",
		"TODOQL_TRANSLATE_BASE_URL":         "https://api.example.com",
		"TODOQL_TRANSLATE_API_KEY":          "secret-key",
		"TODOQL_TRANSLATE_MODEL":            "gpt-5.2",
		"TODOQL_TRANSLATE_TEMPERATURE":      "0.3",
		"TODOQL_TRANSLATE_TIMEOUT":          "21s",
		"TODOQL_SIMILARITY_ENABLED":         "true",
		"TODOQL_SIMILARITY_BASE_URL":        "http://embeddings:8081",
		"TODOQL_SIMILARITY_MODEL":           "nomic-embed-text",
		"TODOQL_SIMILARITY_TIMEOUT":         "4s",
	})
	cfg, err := Load("todoql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "todoql-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP.WriteTimeout = %s", cfg.HTTP.WriteTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:u1:nl_reader" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
	if cfg.Pipeline.MinQueryLength != 3 {
		t.Fatalf("Pipeline.MinQueryLength = %d", cfg.Pipeline.MinQueryLength)
	}
	if cfg.Pipeline.MaxQueryLength != 200 {
		t.Fatalf("Pipeline.MaxQueryLength = %d", cfg.Pipeline.MaxQueryLength)
	}
	if cfg.Pipeline.CacheThreshold != 0.5 {
		t.Fatalf("Pipeline.CacheThreshold = %f", cfg.Pipeline.CacheThreshold)
	}
	if cfg.Pipeline.HistoryLimit != 25 {
		t.Fatalf("Pipeline.HistoryLimit = %d", cfg.Pipeline.HistoryLimit)
	}
	if cfg.Pipeline.PatternLimit != 77 {
		t.Fatalf("Pipeline.PatternLimit = %d", cfg.Pipeline.PatternLimit)
	}
	if cfg.Pipeline.DefaultRowLimit != 15 {
		t.Fatalf("Pipeline.DefaultRowLimit = %d", cfg.Pipeline.DefaultRowLimit)
	}
	if cfg.Pipeline.ExecutionTimeout != 2500*time.Millisecond {
		t.Fatalf("Pipeline.ExecutionTimeout = %s", cfg.Pipeline.ExecutionTimeout)
	}
	if cfg.History.DSN != "postgres://example" {
		t.Fatalf("History.DSN = %q", cfg.History.DSN)
	}
	if cfg.History.MaxOpenConns != 42 {
		t.Fatalf("History.MaxOpenConns = %d", cfg.History.MaxOpenConns)
	}
	if cfg.History.MaxIdleConns != 17 {
		t.Fatalf("History.MaxIdleConns = %d", cfg.History.MaxIdleConns)
	}
	if !cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled = false, want true")
	}
	if cfg.Archive.Interval != 11*time.Minute {
		t.Fatalf("Archive.Interval = %s", cfg.Archive.Interval)
	}
	if cfg.Archive.Prefix != "snapshots" {
		t.Fatalf("Archive.Prefix = %q", cfg.Archive.Prefix)
	}
	if cfg.ObjectStore.Endpoint != "s3.example.com" {
		t.Fatalf("ObjectStore.Endpoint = %q", cfg.ObjectStore.Endpoint)
	}
	if cfg.ObjectStore.Bucket != "todoql-prod" {
		t.Fatalf("ObjectStore.Bucket = %q", cfg.ObjectStore.Bucket)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL = false, want true")
	}
	if !cfg.Translate.Enabled {
		t.Fatal("Translate.Enabled = false, want true")
	}
	if cfg.Translate.BaseURL != "https://api.example.com" {
		t.Fatalf("Translate.BaseURL = %q", cfg.Translate.BaseURL)
	}
	if cfg.Translate.APIKey != "secret-key" {
		t.Fatalf("Translate.APIKey = %q", cfg.Translate.APIKey)
	}
	if cfg.Translate.Model != "gpt-5.2" {
		t.Fatalf("Translate.Model = %q", cfg.Translate.Model)
	}
	if cfg.Translate.Temperature != 0.3 {
		t.Fatalf("Translate.Temperature = %f", cfg.Translate.Temperature)
	}
	if cfg.Translate.Timeout != 21*time.Second {
		t.Fatalf("Translate.Timeout = %s", cfg.Translate.Timeout)
	}
	if !cfg.Similarity.Enabled {
		t.Fatal("Similarity.Enabled = false, want true")
	}
	if cfg.Similarity.BaseURL != "http://embeddings:8081" {
		t.Fatalf("Similarity.BaseURL = %q", cfg.Similarity.BaseURL)
	}
	if cfg.Similarity.Model != "nomic-embed-text" {
		t.Fatalf("Similarity.Model = %q", cfg.Similarity.Model)
	}
	if cfg.Similarity.Timeout != 4*time.Second {
		t.Fatalf("Similarity.Timeout = %s", cfg.Similarity.Timeout)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"TODOQL_PROFILE": "oops"},
		{"TODOQL_HTTP_READ_TIMEOUT": "NaN"},
		{"TODOQL_PIPELINE_MIN_QUERY_LENGTH": "oops"},
		{"TODOQL_PIPELINE_MIN_QUERY_LENGTH": "0"},
		{"TODOQL_PIPELINE_MAX_QUERY_LENGTH": "4"},
		{"TODOQL_PIPELINE_CACHE_THRESHOLD": "1.5"},
		{"TODOQL_PIPELINE_CACHE_THRESHOLD": "bad"},
		{"TODOQL_HISTORY_MAX_OPEN_CONNS": "oops"},
		{"TODOQL_ARCHIVE_ENABLED": "not-bool"},
		{"TODOQL_TRANSLATE_TEMPERATURE": "bad"},
		{"TODOQL_AUTH_REQUIRED": "not-bool"},
		{"TODOQL_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("todoql-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
