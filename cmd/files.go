package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kozaktomas/photo-culler/internal/config"
	"github.com/kozaktomas/photo-culler/internal/detector"
	"github.com/kozaktomas/photo-culler/internal/grouper"
	"github.com/kozaktomas/photo-culler/internal/scorer"
	"github.com/spf13/cobra"
)

// groupsFile is the serialized groups list. Its shape mirrors the in-memory
// Group slices verbatim for easy (de)serialization.
type groupsFile struct {
	Groups []grouper.Group `json:"groups"`
	Count  int             `json:"count"`
}

// scoredFile is the serialized scored-groups list, one ScoreEntry slice per
// group.
type scoredFile struct {
	Groups [][]scorer.ScoreEntry `json:"groups"`
	Count  int                   `json:"count"`
}

func writeJSONFile(path string, data any) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readGroupsFile(path string) ([]grouper.Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f groupsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f.Groups, nil
}

func readScoredFile(path string) ([][]scorer.ScoreEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f scoredFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f.Groups, nil
}

// groupingConfig builds the grouper thresholds from env config, with any
// explicitly set command flags taking precedence.
func groupingConfig(cmd *cobra.Command, cfg *config.Config) grouper.Config {
	gc := grouper.Config{
		PHashThreshold:   cfg.Grouping.PHashThreshold,
		SecondsSeparated: cfg.Grouping.SecondsSeparated,
		CosineThreshold:  cfg.Grouping.CosineThreshold,
		CosineMaxMinutes: cfg.Grouping.CosineMaxMinutes,
	}
	if cmd.Flags().Changed("phash-threshold") {
		gc.PHashThreshold = mustGetFloat64(cmd, "phash-threshold")
	}
	if cmd.Flags().Changed("seconds-separated") {
		gc.SecondsSeparated = mustGetInt(cmd, "seconds-separated")
	}
	if cmd.Flags().Changed("cosine-threshold") {
		gc.CosineThreshold = mustGetFloat64(cmd, "cosine-threshold")
	}
	if cmd.Flags().Changed("cosine-max-minutes") {
		gc.CosineMaxMinutes = mustGetInt(cmd, "cosine-max-minutes")
	}
	return gc
}

// addGroupingFlags registers the threshold flags shared by group and cull.
func addGroupingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("phash-threshold", 0.85, "Minimum normalized perceptual hash similarity")
	cmd.Flags().Int("seconds-separated", 10, "Burst window in seconds")
	cmd.Flags().Float64("cosine-threshold", 0.8, "Minimum embedding cosine similarity")
	cmd.Flags().Int("cosine-max-minutes", 1440, "Time window in minutes for embedding links")
}

// newDetectorClient returns a sidecar client, or nil when no detector is
// configured. A nil client disables embeddings and face sub-scores.
func newDetectorClient(cfg *config.Config) *detector.Client {
	if cfg.Detector.URL == "" {
		return nil
	}
	return detector.NewClient(cfg.Detector.URL, time.Duration(cfg.Detector.TimeoutSeconds)*time.Second)
}

// loadWeights resolves the composite weights: embedded defaults unless a
// weights file is configured.
func loadWeights(cfg *config.Config) (scorer.Weights, error) {
	if cfg.Scoring.WeightsFile == "" {
		return scorer.DefaultWeights(), nil
	}
	return scorer.LoadWeightsFile(cfg.Scoring.WeightsFile)
}
