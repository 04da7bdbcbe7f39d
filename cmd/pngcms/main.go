package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/davesmith10/pngcms/internal/pipeline"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "pngcms",
	Short:             "Inspect, decode and encode color-managed PNG images",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

var (
	logger   = slog.New(slog.DiscardHandler)
	registry = pipeline.NewRegistry()
)

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func main() {
	pipeline.Init(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
