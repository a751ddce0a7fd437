package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/photo-culler/internal/catalog"
	"github.com/kozaktomas/photo-culler/internal/config"
	"github.com/kozaktomas/photo-culler/internal/grouper"
	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group [manifest]",
	Short: "Group near-duplicate and burst photos",
	Long: `Group photos from a scan manifest into near-duplicate/burst clusters.

Photos land in the same group when any of three signals links them:
similar perceptual hashes, capture times within the burst window, or
similar embeddings taken within the embedding time window. Links are
transitive: a chain of pairwise links forms one group.

Examples:
  # Group with default thresholds
  photo-culler group photos.json

  # Aggressive burst detection
  photo-culler group photos.json --seconds-separated 30`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)

	groupCmd.Flags().String("out", "groups.json", "Output groups file")
	addGroupingFlags(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	outPath := mustGetString(cmd, "out")

	photos, err := catalog.ReadManifest(args[0])
	if err != nil {
		return err
	}

	groups := grouper.GroupPhotos(photos, groupingConfig(cmd, cfg))

	multi := 0
	for _, g := range groups {
		if len(g) > 1 {
			multi++
		}
	}
	fmt.Printf("Grouped %d photos into %d groups (%d with more than one member)\n\n",
		len(photos), len(groups), multi)

	printGroupTable(groups)

	if err := writeJSONFile(outPath, groupsFile{Groups: groups, Count: len(groups)}); err != nil {
		return err
	}
	fmt.Printf("\nGroups written to %s\n", outPath)
	return nil
}

func printGroupTable(groups []grouper.Group) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tSIZE\tFIRST PHOTO")
	fmt.Fprintln(w, "-----\t----\t-----------")
	for i, g := range groups {
		if len(g) < 2 {
			continue // Singletons clutter the table; they are still in the output file.
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", i, len(g), g[0].Path)
	}
	w.Flush()
}
