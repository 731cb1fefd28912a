package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raintag/raintag/internal/tagging"
)

func NewRunCommand() *cobra.Command {
	var (
		dryRun     bool
		collection int64
		batchSize  int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tag untagged bookmarks once",
		Long: `Fetch untagged bookmarks from Raindrop.io, categorize them with the
configured language model, and write the resulting tags back. Exits
non-zero when any bookmark could not be updated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("collection") {
				cfg.Collection = collection
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.BatchSize = batchSize
			}

			closeLog, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			deps, err := BuildRunDependencies(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			summary, err := deps.Run(ctx, dryRun)
			if err != nil {
				return err
			}

			printSummary(summary)

			if summary.Failed > 0 {
				return fmt.Errorf("%d bookmarks could not be updated", summary.Failed)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Categorize and validate without writing any tags")
	cmd.Flags().Int64Var(&collection, "collection", -1, "Raindrop collection to process (-1 for all)")
	cmd.Flags().IntVar(&batchSize, "batch-size", tagging.DefaultBatchSize, "Bookmarks per model request")

	return cmd
}

func printSummary(summary tagging.RunSummary) {
	fmt.Println("📊 Run summary")
	if summary.DryRun {
		fmt.Println("   Dry run - no tags were written")
	}
	fmt.Printf("   Untagged found:     %d\n", summary.Fetched)
	fmt.Printf("   Categorized:        %d\n", summary.Categorized)
	fmt.Printf("   Tags applied:       %d\n", summary.Applied)
	fmt.Printf("   Failed:             %d\n", summary.Failed)
	fmt.Printf("   Skipped:            %d\n", summary.Skipped)
	fmt.Printf("   Success rate:       %.1f%%\n", summary.SuccessRate)
	fmt.Printf("   Duration:           %s\n", summary.Duration().Round(100*time.Millisecond))
}
