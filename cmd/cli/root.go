package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raintag/raintag/internal/config"
	"github.com/raintag/raintag/internal/logging"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "raintag",
		Short: "Raindrop.io auto-tagger",
		Long: `Raintag fetches untagged bookmarks from Raindrop.io, categorizes them in
batches with a language model, and writes the resulting tags back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a raintag.yaml config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewScheduleCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewTagsCommand())
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration honoring the persistent flags. When
// validate is set, missing credentials fail before any network call.
func loadConfig(cmd *cobra.Command, validate bool) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if validate {
		cfg, err = config.LoadConfig(configFile)
	} else {
		cfg, err = config.Load(configFile)
	}
	if err != nil {
		return nil, err
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}

	return cfg, nil
}

// setupLogging switches the global logger to the redacting console and
// per-run file writers. The returned function closes the log file.
func setupLogging(cfg *config.Config) (func(), error) {
	return logging.Setup(logging.Options{
		Dir:     cfg.LogDir,
		Debug:   cfg.Debug,
		Secrets: []string{cfg.RaindropToken, cfg.APIKey(), cfg.AuthToken},
	})
}
