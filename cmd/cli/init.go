package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// starterConfig is the raintag.yaml written by init. Keys are matched
// case-insensitively against the config fields, durations are parsed from
// their string form.
type starterConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	Collection     int64  `yaml:"collection"`
	BatchSize      int    `yaml:"batchSize"`
	PageSize       int    `yaml:"pageSize"`
	MaxPages       int    `yaml:"maxPages"`
	RaindropDelay  string `yaml:"raindropDelay"`
	AIDelay        string `yaml:"aiDelay"`
	MaxRetries     int    `yaml:"maxRetries"`
	RequestTimeout string `yaml:"requestTimeout"`
	HTTPAddress    string `yaml:"httpAddress"`
	LogDir         string `yaml:"logDir"`
	HistoryEnabled bool   `yaml:"historyEnabled"`
	HistoryPath    string `yaml:"historyPath"`
}

const starterHeader = `# raintag configuration.
#
# Every value below is the default; delete what you do not change.
# Environment variables (RAINTAG_BATCH_SIZE, RAINTAG_PROVIDER, ...)
# override this file.
#
# Credentials are read from the environment or a .env file:
#   RAINDROP_TOKEN    - Raindrop.io test token
#   ANTHROPIC_API_KEY - or OPENAI_API_KEY / GEMINI_API_KEY
#   AUTH_TOKEN        - optional bearer token for serve mode

`

func NewInitCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter raintag.yaml",
		Long:  `Write a starter configuration file with all defaults. Refuses to overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%s already exists, not overwriting", output)
			}

			starter := starterConfig{
				Provider:       "anthropic",
				Model:          "claude-3-5-haiku-20241022",
				Collection:     -1,
				BatchSize:      25,
				PageSize:       50,
				MaxPages:       20,
				RaindropDelay:  "500ms",
				AIDelay:        "2s",
				MaxRetries:     3,
				RequestTimeout: "15s",
				HTTPAddress:    ":8080",
				LogDir:         "logs",
				HistoryEnabled: true,
				HistoryPath:    "",
			}

			encoded, err := yaml.Marshal(starter)
			if err != nil {
				return fmt.Errorf("failed to encode starter config: %w", err)
			}

			if err := os.WriteFile(output, append([]byte(starterHeader), encoded...), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			fmt.Printf("✅ Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "raintag.yaml", "Where to write the starter config")

	return cmd
}
