package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/photo-culler/internal/catalog"
	"github.com/spf13/cobra"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

var neighborsCmd = &cobra.Command{
	Use:   "neighbors [manifest]",
	Short: "Print nearest embedding neighbors for every photo",
	Long: `Build an in-memory HNSW index over the manifest embeddings and print
the nearest neighbors of every photo together with their cosine similarity.

Useful for tuning --cosine-threshold: look at where true burst neighbors
end and unrelated photos begin.`,
	Args: cobra.ExactArgs(1),
	RunE: runNeighbors,
}

func init() {
	rootCmd.AddCommand(neighborsCmd)

	neighborsCmd.Flags().Int("k", 3, "Number of neighbors to print per photo")
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	k := mustGetInt(cmd, "k")

	photos, err := catalog.ReadManifest(args[0])
	if err != nil {
		return err
	}

	embedded := make(map[string][]float32)
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	for _, p := range photos {
		if !p.HasEmbedding() {
			continue
		}
		g.Add(hnsw.MakeNode(p.Path, p.Embedding))
		embedded[p.Path] = p.Embedding
	}

	if len(embedded) == 0 {
		return fmt.Errorf("manifest has no embeddings, rescan with --embeddings")
	}
	fmt.Printf("Indexed %d photos with embeddings\n\n", len(embedded))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHOTO\tNEIGHBOR\tCOSINE")
	fmt.Fprintln(w, "-----\t--------\t------")

	for _, p := range photos {
		query, ok := embedded[p.Path]
		if !ok {
			continue
		}
		// Search k+1 because the photo is its own nearest neighbor.
		neighbors := g.Search(query, k+1)
		for _, n := range neighbors {
			if n.Key == p.Path {
				continue
			}
			sim := 1 - float64(hnsw.CosineDistance(query, n.Value))
			fmt.Fprintf(w, "%s\t%s\t%.3f\n", p.Path, n.Key, sim)
		}
	}
	w.Flush()
	return nil
}
