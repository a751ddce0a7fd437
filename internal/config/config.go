// Package config loads configuration from environment variables (optionally
// seeded from a .env file by the CLI layer).
package config

import (
	"os"
	"strconv"
)

type Config struct {
	Grouping GroupingConfig
	Scoring  ScoringConfig
	Detector DetectorConfig
	Cache    CacheConfig
	Web      WebConfig
}

// GroupingConfig carries the similarity thresholds for the grouping engine.
type GroupingConfig struct {
	PHashThreshold   float64 // minimum normalized hash similarity (default 0.85)
	SecondsSeparated int     // burst window in seconds (default 10)
	CosineThreshold  float64 // minimum embedding cosine similarity (default 0.8)
	CosineMaxMinutes int     // time window for embedding links (default 1440)
}

type ScoringConfig struct {
	MaxAnalysisDim int    // analysis resolution cap (default 256)
	Concurrency    int    // scoring workers per group (default 4)
	WeightsFile    string // optional YAML override for composite weights
}

type DetectorConfig struct {
	URL            string // empty disables embeddings and face sub-scores
	TimeoutSeconds int    // per-request timeout (default 30)
}

type CacheConfig struct {
	Path string // sqlite signal cache; empty disables caching
}

type WebConfig struct {
	Host string // defaults to 127.0.0.1
	Port int    // defaults to 8085
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Grouping: GroupingConfig{
			PHashThreshold:   envFloat("PHASH_THRESHOLD", 0.85),
			SecondsSeparated: envInt("SECONDS_SEPARATED", 10),
			CosineThreshold:  envFloat("COSINE_SIMILARITY_THRESHOLD", 0.8),
			CosineMaxMinutes: envInt("COSINE_MAX_MINUTES", 1440),
		},
		Scoring: ScoringConfig{
			MaxAnalysisDim: envInt("SCORE_MAX_DIM", 256),
			Concurrency:    envInt("SCORE_CONCURRENCY", 4),
			WeightsFile:    os.Getenv("SCORE_WEIGHTS_FILE"),
		},
		Detector: DetectorConfig{
			URL:            os.Getenv("DETECTOR_URL"),
			TimeoutSeconds: envInt("DETECTOR_TIMEOUT", 30),
		},
		Cache: CacheConfig{
			Path: os.Getenv("CACHE_PATH"),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "127.0.0.1"),
			Port: envInt("WEB_PORT", 8085),
		},
	}
}
