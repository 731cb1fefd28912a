package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raintag/raintag/internal/history"
)

func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent tagging runs",
		Long:  `List recent runs recorded in the local history database, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}

			if !cfg.HistoryEnabled {
				return fmt.Errorf("run history is disabled in the configuration")
			}

			store, err := history.Open(cfg.HistoryPath)
			if err != nil {
				return fmt.Errorf("failed to open run history: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No recorded runs yet")
				return nil
			}

			fmt.Printf("📊 Recent runs (%d):\n", len(runs))
			for _, run := range runs {
				mode := ""
				if run.DryRun {
					mode = " (dry run)"
				}

				fmt.Printf("   %s  %s%s\n",
					run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.RunID, mode)
				fmt.Printf("      fetched=%d applied=%d failed=%d skipped=%d success=%.1f%%\n",
					run.Fetched, run.Applied, run.Failed, run.Skipped, run.SuccessRate)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}
