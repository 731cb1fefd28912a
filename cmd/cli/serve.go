package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/raintag/raintag/internal/controllers"
	"github.com/raintag/raintag/internal/server"
)

func NewServeCommand() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tagger over HTTP",
		Long: `Start an HTTP service with a health check, a run-trigger endpoint, and
recorded run statistics. Set AUTH_TOKEN to require a bearer token on the
run and stats endpoints.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("address") {
				cfg.HTTPAddress = address
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

			runController := controllers.NewRunController(controllers.RunControllerDependencies{
				Runner:  deps,
				History: deps.History,
			})

			app := server.NewHTTPServer(ctx, server.HTTPServerDependencies{
				RunController: runController,
				AuthToken:     cfg.AuthToken,
			})

			if cfg.AuthToken == "" {
				log.Warn().Msg("AUTH_TOKEN is not set, run and stats endpoints are unauthenticated")
			}

			log.Info().Str("address", cfg.HTTPAddress).Msg("Starting HTTP service")

			if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
				GracefulContext:       ctx,
				DisableStartupMessage: true,
			}); err != nil {
				return fmt.Errorf("HTTP server failed: %w", err)
			}

			log.Info().Msg("HTTP service stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", ":8080", "Address to listen on")

	return cmd
}
