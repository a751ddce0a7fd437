package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/photo-culler/internal/config"
	"github.com/kozaktomas/photo-culler/internal/web"
	"github.com/kozaktomas/photo-culler/internal/web/handlers"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [scored-file]",
	Short: "Start the review web server",
	Long: `Start the review web server over a scored groups file.
The server exposes a JSON API for listing groups, picking the photo to
keep per group and fetching thumbnails. Keep decisions are persisted to
a decisions file as they are made.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (0 = WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (empty = WEB_HOST)")
	serveCmd.Flags().String("decisions", "decisions.json", "File keep decisions are persisted to")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	decisionsPath := mustGetString(cmd, "decisions")
	if port == 0 {
		port = cfg.Web.Port
	}
	if host == "" {
		host = cfg.Web.Host
	}

	groups, err := readScoredFile(args[0])
	if err != nil {
		return err
	}

	store := handlers.NewReviewStore(groups, decisionsPath)
	server := web.NewServer(host, port, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Reviewing %d groups on http://%s:%d\n", len(groups), host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
