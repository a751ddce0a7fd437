package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/photo-culler/internal/config"
	"github.com/kozaktomas/photo-culler/internal/scorer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [groups-file]",
	Short: "Score group members and recommend keepers",
	Long: `Score every photo of every group with the composite quality score
(brightness, contrast, sharpness, face presence, eyes open, smiling) and
seed the keep flag on the best-scoring member of each group.

Face sub-scores require a detector sidecar (DETECTOR_URL); without one
they contribute zero and ranking falls back to the pixel sub-scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("out", "scored.json", "Output scored groups file")
	scoreCmd.Flags().Int("concurrency", 0, "Scoring workers per group (0 = SCORE_CONCURRENCY)")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	outPath := mustGetString(cmd, "out")
	concurrency := mustGetInt(cmd, "concurrency")
	if concurrency <= 0 {
		concurrency = cfg.Scoring.Concurrency
	}

	groups, err := readGroupsFile(args[0])
	if err != nil {
		return err
	}

	weights, err := loadWeights(cfg)
	if err != nil {
		return err
	}

	s := scorer.New(scorer.Options{
		Weights:        &weights,
		Faces:          detectorOrNil(cfg),
		MaxAnalysisDim: cfg.Scoring.MaxAnalysisDim,
		Concurrency:    concurrency,
	})

	bar := progressbar.NewOptions(len(groups),
		progressbar.OptionSetDescription("Scoring groups"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("groups"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	ctx := context.Background()
	scored := make([][]scorer.ScoreEntry, len(groups))
	for i, g := range groups {
		scored[i] = s.ScoreGroup(ctx, g)
		bar.Add(1)
	}
	fmt.Println()

	printScoreTable(scored)

	if err := writeJSONFile(outPath, scoredFile{Groups: scored, Count: len(scored)}); err != nil {
		return err
	}
	fmt.Printf("\nScored groups written to %s\n", outPath)
	return nil
}

// detectorOrNil returns the sidecar client as a scorer.FaceDetector, keeping
// the interface value nil when no detector is configured.
func detectorOrNil(cfg *config.Config) scorer.FaceDetector {
	if det := newDetectorClient(cfg); det != nil {
		return det
	}
	return nil
}

func printScoreTable(scored [][]scorer.ScoreEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tSIZE\tKEEP\tSCORE")
	fmt.Fprintln(w, "-----\t----\t----\t-----")
	for i, entries := range scored {
		if len(entries) < 2 {
			continue
		}
		for _, e := range entries {
			if e.Keep {
				fmt.Fprintf(w, "%d\t%d\t%s\t%.3f\n", i, len(entries), e.Path, e.Score.Score)
			}
		}
	}
	w.Flush()
}
