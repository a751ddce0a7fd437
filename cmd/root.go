package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-culler",
	Short: "A CLI tool for culling near-duplicate and burst photos",
	Long: `Photo Culler scans a photo directory, groups near-duplicate and
burst shots using perceptual hashes, capture times and image embeddings,
scores every group member for quality, and recommends which photo of each
group to keep.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
