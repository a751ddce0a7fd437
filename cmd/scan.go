package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/photo-culler/internal/catalog"
	"github.com/kozaktomas/photo-culler/internal/config"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Scan a directory and compute photo feature records",
	Long: `Scan a directory for photos and compute per-photo signals:
perceptual hash, capture time (EXIF, falling back to file modification time)
and, when a detector sidecar is configured, an image embedding.

Records are written to a JSON manifest consumed by the group command.
With a cache configured (CACHE_PATH or --cache), unchanged files are not
recomputed on rescans.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("manifest", "photos.json", "Output manifest file")
	scanCmd.Flags().Bool("embeddings", false, "Compute image embeddings via the detector sidecar")
	scanCmd.Flags().Int("concurrency", 4, "Number of parallel workers")
	scanCmd.Flags().String("cache", "", "Path to the sqlite signal cache (overrides CACHE_PATH)")
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := args[0]
	cfg := config.Load()

	manifestPath := mustGetString(cmd, "manifest")
	embeddings := mustGetBool(cmd, "embeddings")
	concurrency := mustGetInt(cmd, "concurrency")
	cachePath := mustGetString(cmd, "cache")
	if cachePath == "" {
		cachePath = cfg.Cache.Path
	}

	opts := catalog.ScanOptions{
		Concurrency: concurrency,
		Progress:    true,
	}

	if embeddings {
		det := newDetectorClient(cfg)
		if det == nil {
			return errors.New("DETECTOR_URL environment variable is required for --embeddings")
		}
		opts.Embedder = det
	}

	if cachePath != "" {
		store, err := catalog.OpenStore(cachePath)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer store.Close()
		opts.Store = store
	}

	result, err := catalog.Scan(context.Background(), dir, opts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Scanned %d photos\n", len(result.Records))
	if len(result.Errors) > 0 {
		fmt.Printf("Errors: %d\n", len(result.Errors))
		for _, err := range result.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}

	if err := catalog.WriteManifest(manifestPath, result.Records); err != nil {
		return err
	}
	fmt.Printf("Manifest written to %s\n", manifestPath)
	return nil
}
