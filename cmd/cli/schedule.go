package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewScheduleCommand() *cobra.Command {
	var cronExpr string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the tagger on a cron schedule",
		Long: `Keep the process running and execute a tagging pass on the given cron
schedule. A tick that fires while a run is still active is skipped, so
runs never overlap.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}

			if _, err := cron.ParseStandard(cronExpr); err != nil {
				return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
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

			scheduler := cron.New(cron.WithChain(
				cron.SkipIfStillRunning(cronLogger{}),
			))

			_, err = scheduler.AddFunc(cronExpr, func() {
				summary, err := deps.Run(ctx, false)
				if err != nil {
					log.Error().Err(err).Msg("Scheduled run failed")
					return
				}
				if summary.Failed > 0 {
					log.Warn().
						Int("failed", summary.Failed).
						Str("run_id", summary.RunID).
						Msg("Scheduled run finished with failures")
				}
			})
			if err != nil {
				return fmt.Errorf("failed to schedule runs: %w", err)
			}

			scheduler.Start()

			log.Info().
				Str("cron", cronExpr).
				Time("next_run", scheduler.Entries()[0].Next).
				Msg("Scheduler started")

			<-ctx.Done()

			log.Info().Msg("Shutting down scheduler")
			<-scheduler.Stop().Done()

			return nil
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "0 6 * * *", "Cron schedule in standard five-field syntax")

	return cmd
}

// cronLogger adapts the cron logger interface to zerolog. It only ever
// receives the skip notices from SkipIfStillRunning.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Info().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
