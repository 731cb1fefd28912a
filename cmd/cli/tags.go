package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raintag/raintag/internal/retry"
	"github.com/raintag/raintag/pkg/clients/raindrop"
)

func NewTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the existing tag taxonomy",
		Long: `Fetch and print the tags currently in use across the Raindrop.io
account. Useful for verifying the token without changing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			if cfg.RaindropToken == "" {
				return fmt.Errorf("RAINDROP_TOKEN is not set")
			}

			client := raindrop.NewClient(
				raindrop.WithToken(cfg.RaindropToken),
				raindrop.WithTimeout(cfg.RequestTimeout),
				raindrop.WithRetryPolicy(retry.Policy{MaxAttempts: cfg.MaxRetries, BaseDelay: cfg.RaindropDelay}),
				raindrop.WithPaceInterval(cfg.RaindropDelay),
			)

			tags, err := client.GetTags(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch tags: %w", err)
			}

			if len(tags) == 0 {
				fmt.Println("No tags in use yet")
				return nil
			}

			fmt.Printf("🏷️  Tags in use (%d):\n", len(tags))
			for _, tag := range tags {
				fmt.Printf("   %s (%d)\n", tag.Name, tag.Count)
			}

			return nil
		},
	}

	return cmd
}
