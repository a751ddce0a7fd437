package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Grouping.PHashThreshold != 0.85 {
		t.Errorf("PHashThreshold = %f; want 0.85", cfg.Grouping.PHashThreshold)
	}
	if cfg.Grouping.SecondsSeparated != 10 {
		t.Errorf("SecondsSeparated = %d; want 10", cfg.Grouping.SecondsSeparated)
	}
	if cfg.Grouping.CosineThreshold != 0.8 {
		t.Errorf("CosineThreshold = %f; want 0.8", cfg.Grouping.CosineThreshold)
	}
	if cfg.Grouping.CosineMaxMinutes != 1440 {
		t.Errorf("CosineMaxMinutes = %d; want 1440", cfg.Grouping.CosineMaxMinutes)
	}
	if cfg.Scoring.MaxAnalysisDim != 256 {
		t.Errorf("MaxAnalysisDim = %d; want 256", cfg.Scoring.MaxAnalysisDim)
	}
	if cfg.Scoring.Concurrency != 4 {
		t.Errorf("Concurrency = %d; want 4", cfg.Scoring.Concurrency)
	}
	if cfg.Detector.URL != "" {
		t.Errorf("Detector URL = %s; want empty", cfg.Detector.URL)
	}
	if cfg.Detector.TimeoutSeconds != 30 {
		t.Errorf("Detector timeout = %d; want 30", cfg.Detector.TimeoutSeconds)
	}
	if cfg.Web.Host != "127.0.0.1" {
		t.Errorf("Web host = %s; want 127.0.0.1", cfg.Web.Host)
	}
	if cfg.Web.Port != 8085 {
		t.Errorf("Web port = %d; want 8085", cfg.Web.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PHASH_THRESHOLD", "0.9")
	t.Setenv("SECONDS_SEPARATED", "30")
	t.Setenv("COSINE_SIMILARITY_THRESHOLD", "0.75")
	t.Setenv("COSINE_MAX_MINUTES", "60")
	t.Setenv("SCORE_MAX_DIM", "512")
	t.Setenv("SCORE_CONCURRENCY", "8")
	t.Setenv("SCORE_WEIGHTS_FILE", "/etc/weights.yaml")
	t.Setenv("DETECTOR_URL", "http://localhost:9000")
	t.Setenv("DETECTOR_TIMEOUT", "120")
	t.Setenv("CACHE_PATH", "/tmp/cache.db")
	t.Setenv("WEB_HOST", "0.0.0.0")
	t.Setenv("WEB_PORT", "9090")

	cfg := Load()

	if cfg.Grouping.PHashThreshold != 0.9 {
		t.Errorf("PHashThreshold = %f; want 0.9", cfg.Grouping.PHashThreshold)
	}
	if cfg.Grouping.SecondsSeparated != 30 {
		t.Errorf("SecondsSeparated = %d; want 30", cfg.Grouping.SecondsSeparated)
	}
	if cfg.Grouping.CosineThreshold != 0.75 {
		t.Errorf("CosineThreshold = %f; want 0.75", cfg.Grouping.CosineThreshold)
	}
	if cfg.Grouping.CosineMaxMinutes != 60 {
		t.Errorf("CosineMaxMinutes = %d; want 60", cfg.Grouping.CosineMaxMinutes)
	}
	if cfg.Scoring.MaxAnalysisDim != 512 {
		t.Errorf("MaxAnalysisDim = %d; want 512", cfg.Scoring.MaxAnalysisDim)
	}
	if cfg.Scoring.Concurrency != 8 {
		t.Errorf("Concurrency = %d; want 8", cfg.Scoring.Concurrency)
	}
	if cfg.Scoring.WeightsFile != "/etc/weights.yaml" {
		t.Errorf("WeightsFile = %s; want /etc/weights.yaml", cfg.Scoring.WeightsFile)
	}
	if cfg.Detector.URL != "http://localhost:9000" {
		t.Errorf("Detector URL = %s; want http://localhost:9000", cfg.Detector.URL)
	}
	if cfg.Detector.TimeoutSeconds != 120 {
		t.Errorf("Detector timeout = %d; want 120", cfg.Detector.TimeoutSeconds)
	}
	if cfg.Cache.Path != "/tmp/cache.db" {
		t.Errorf("Cache path = %s; want /tmp/cache.db", cfg.Cache.Path)
	}
	if cfg.Web.Host != "0.0.0.0" {
		t.Errorf("Web host = %s; want 0.0.0.0", cfg.Web.Host)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("Web port = %d; want 9090", cfg.Web.Port)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PHASH_THRESHOLD", "2.5")       // out of (0, 1]
	t.Setenv("SECONDS_SEPARATED", "-5")      // not positive
	t.Setenv("SCORE_MAX_DIM", "not a number")
	t.Setenv("WEB_PORT", "0")

	cfg := Load()

	if cfg.Grouping.PHashThreshold != 0.85 {
		t.Errorf("Out-of-range PHashThreshold should fall back, got %f", cfg.Grouping.PHashThreshold)
	}
	if cfg.Grouping.SecondsSeparated != 10 {
		t.Errorf("Negative SecondsSeparated should fall back, got %d", cfg.Grouping.SecondsSeparated)
	}
	if cfg.Scoring.MaxAnalysisDim != 256 {
		t.Errorf("Unparsable SCORE_MAX_DIM should fall back, got %d", cfg.Scoring.MaxAnalysisDim)
	}
	if cfg.Web.Port != 8085 {
		t.Errorf("Zero WEB_PORT should fall back, got %d", cfg.Web.Port)
	}
}
