package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwhited/typoscope/internal/cache"
	"github.com/mwhited/typoscope/internal/config"
	"github.com/mwhited/typoscope/internal/db"
	"github.com/mwhited/typoscope/internal/server/ratelimit"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge expired cache rows and stale rate limit windows",
	RunE:  runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	cacheRows, err := cache.New(database).PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}

	windows, err := database.DeleteRateWindowsEndedBefore(ctx, time.Now().Add(-ratelimit.Window))
	if err != nil {
		return fmt.Errorf("failed to purge rate windows: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired cache rows and %d stale rate windows\n", cacheRows, windows)
	return nil
}
