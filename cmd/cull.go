package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kozaktomas/photo-culler/internal/catalog"
	"github.com/kozaktomas/photo-culler/internal/config"
	"github.com/kozaktomas/photo-culler/internal/grouper"
	"github.com/kozaktomas/photo-culler/internal/scorer"
	"github.com/spf13/cobra"
)

var cullCmd = &cobra.Command{
	Use:   "cull [directory]",
	Short: "Scan, group, score and cull a photo directory in one run",
	Long: `Run the full pipeline: scan the directory, group near-duplicates,
score every group member and recommend a keeper per group.

By default this is a preview: the scored groups are written to a JSON file
for inspection (or review via 'photo-culler serve'). With --apply, the
photos NOT recommended for keeping are moved into the discard directory.

Examples:
  # Preview only
  photo-culler cull ~/Photos/2024-holiday

  # Move the losers of every group into _discard/
  photo-culler cull ~/Photos/2024-holiday --apply`,
	Args: cobra.ExactArgs(1),
	RunE: runCull,
}

func init() {
	rootCmd.AddCommand(cullCmd)

	cullCmd.Flags().String("out", "scored.json", "Output scored groups file")
	cullCmd.Flags().Bool("embeddings", false, "Compute image embeddings via the detector sidecar")
	cullCmd.Flags().Int("concurrency", 4, "Number of parallel workers")
	cullCmd.Flags().String("cache", "", "Path to the sqlite signal cache (overrides CACHE_PATH)")
	cullCmd.Flags().Bool("apply", false, "Move non-kept photos into the discard directory")
	cullCmd.Flags().String("discard-dir", "", "Discard directory (default: _discard inside the scanned directory)")
	addGroupingFlags(cullCmd)
}

func runCull(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg := config.Load()

	outPath := mustGetString(cmd, "out")
	embeddings := mustGetBool(cmd, "embeddings")
	concurrency := mustGetInt(cmd, "concurrency")
	cachePath := mustGetString(cmd, "cache")
	apply := mustGetBool(cmd, "apply")
	discardDir := mustGetString(cmd, "discard-dir")
	if cachePath == "" {
		cachePath = cfg.Cache.Path
	}
	if discardDir == "" {
		discardDir = filepath.Join(dir, "_discard")
	}

	// Set up context with signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal...")
		cancel()
	}()

	// Scan
	scanOpts := catalog.ScanOptions{
		Concurrency: concurrency,
		Progress:    true,
	}
	det := newDetectorClient(cfg)
	if embeddings {
		if det == nil {
			return errors.New("DETECTOR_URL environment variable is required for --embeddings")
		}
		scanOpts.Embedder = det
	}
	if cachePath != "" {
		store, err := catalog.OpenStore(cachePath)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer store.Close()
		scanOpts.Store = store
	}

	result, err := catalog.Scan(ctx, dir, scanOpts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("Scan errors: %d\n", len(result.Errors))
		for _, err := range result.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}

	// Group
	groups := grouper.GroupPhotos(result.Records, groupingConfig(cmd, cfg))
	multi := 0
	for _, g := range groups {
		if len(g) > 1 {
			multi++
		}
	}
	fmt.Printf("Grouped %d photos into %d groups (%d with more than one member)\n",
		len(result.Records), len(groups), multi)

	// Score
	weights, err := loadWeights(cfg)
	if err != nil {
		return err
	}
	var faces scorer.FaceDetector
	if det != nil {
		faces = det
	}
	s := scorer.New(scorer.Options{
		Weights:        &weights,
		Faces:          faces,
		MaxAnalysisDim: cfg.Scoring.MaxAnalysisDim,
		Concurrency:    cfg.Scoring.Concurrency,
	})

	scored := make([][]scorer.ScoreEntry, len(groups))
	for i, g := range groups {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		scored[i] = s.ScoreGroup(ctx, g)
	}

	printScoreTable(scored)

	if err := writeJSONFile(outPath, scoredFile{Groups: scored, Count: len(scored)}); err != nil {
		return err
	}
	fmt.Printf("\nScored groups written to %s\n", outPath)

	if !apply {
		fmt.Println("Preview only. Re-run with --apply to move non-kept photos.")
		return nil
	}
	return applyCull(scored, discardDir)
}

// applyCull moves every non-kept member of multi-photo groups into the
// discard directory. Singleton groups are never touched.
func applyCull(scored [][]scorer.ScoreEntry, discardDir string) error {
	if err := os.MkdirAll(discardDir, 0o755); err != nil {
		return fmt.Errorf("failed to create discard directory: %w", err)
	}

	moved := 0
	var errs []error
	for i, entries := range scored {
		if len(entries) < 2 {
			continue
		}
		for _, e := range entries {
			if e.Keep {
				continue
			}
			dst := filepath.Join(discardDir, fmt.Sprintf("g%03d_%s", i, filepath.Base(e.Path)))
			if err := os.Rename(e.Path, dst); err != nil {
				errs = append(errs, fmt.Errorf("failed to move %s: %w", e.Path, err))
				continue
			}
			moved++
		}
	}

	fmt.Printf("Moved %d photos to %s\n", moved, discardDir)
	if len(errs) > 0 {
		fmt.Printf("Move errors: %d\n", len(errs))
		for _, err := range errs {
			fmt.Printf("  - %v\n", err)
		}
	}
	return nil
}
