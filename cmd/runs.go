// File: cmd/runs.go
package cmd

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"formpilot/internal/config"
	"formpilot/internal/observability"
	"formpilot/internal/store"
)

func init() {
	rootCmd.AddCommand(newRunsCmd())
}

// newRunsCmd lists past submission attempts for a record from the run
// ledger. Requires database.url to be configured.
func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs <record-id>",
		Short: "Show the submission history of a record from the run ledger.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg := config.NewDefaultConfig()
			if err := viper.Unmarshal(cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config: %w", err)
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("database.url is not configured; no run ledger available")
			}

			pool, err := pgxpool.New(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connecting to run ledger: %w", err)
			}
			defer pool.Close()

			ledger, err := store.New(cmd.Context(), pool, logger)
			if err != nil {
				return err
			}

			runs, err := ledger.GetRunsByRecordID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Printf("no runs recorded for %s\n", args[0])
				return nil
			}

			for _, r := range runs {
				outcome := "success " + r.CompletionNumber
				if !r.Success {
					outcome = string(r.Classification)
					if r.FailureCode != "" {
						outcome += " (code " + r.FailureCode + ")"
					}
				}
				cmd.Printf("%s  %s  %s  %s\n",
					r.StartedAt.Format(time.RFC3339),
					r.RunID,
					r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
					outcome)
			}
			return nil
		},
	}
}
