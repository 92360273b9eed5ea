// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"formpilot/api/schemas"
	"formpilot/internal/browser"
	"formpilot/internal/capture"
	"formpilot/internal/config"
	"formpilot/internal/gateway"
	"formpilot/internal/interact"
	"formpilot/internal/observability"
	"formpilot/internal/store"
	"formpilot/internal/workflow"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "run <case-record.json> [more records...]",
		Short: "Submit one or more case records through the portal.",
		Long: `Run drives each case record through the full portal submission:
entity classification, responsible party, address, business details,
activity, and final review. Every record gets its own browser tab and
staging directory. A portal rejection is reported as an unsuccessful
result, not a command failure.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("portal.start_url", cmd.Flags().Lookup("start-url"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			comps, err := initializeRunComponents(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			if parallel < 1 {
				parallel = 1
			}
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(parallel)

			results := make([]*schemas.RunResult, len(args))
			for i, path := range args {
				g.Go(func() error {
					record, err := loadCaseRecord(path)
					if err != nil {
						return err
					}
					if problems := checkRecord(record); len(problems) > 0 {
						return fmt.Errorf("record %s is not runnable: %s", path, strings.Join(problems, "; "))
					}
					res, err := comps.submit(ctx, cfg, record, logger)
					if err != nil {
						return err
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			rejected := 0
			for _, res := range results {
				printResult(cmd, res)
				if res != nil && !res.Success {
					rejected++
				}
			}
			if rejected > 0 {
				return fmt.Errorf("%d of %d record(s) were not accepted by the portal", rejected, len(args))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 1, "maximum records submitted concurrently")
	cmd.Flags().String("start-url", "", "override the portal entry URL")
	return cmd
}

// runComponents are the collaborators shared by every record in one run
// invocation. Browser tabs are per record and built in submit.
type runComponents struct {
	storage  *gateway.FilesystemStorage
	notifier *gateway.HTTPNotifier
	staging  *capture.Staging
	recovery *capture.RecoveryLog
	pool     *pgxpool.Pool
	ledger   schemas.RunStore
}

func initializeRunComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runComponents, error) {
	storage, err := gateway.NewFilesystemStorage(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	comps := &runComponents{
		storage:  storage,
		notifier: gateway.NewHTTPNotifier(cfg.Notify, logger),
		staging:  capture.NewStaging(cfg.Capture.StagingRoot, cfg.Capture.PollInterval),
		recovery: capture.NewRecoveryLog(cfg.Capture),
	}

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to run ledger: %w", err)
		}
		ledger, err := store.New(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		comps.pool = pool
		comps.ledger = ledger
	}
	return comps, nil
}

// Shutdown flushes the recovery log and releases the ledger pool.
func (c *runComponents) Shutdown() {
	c.recovery.Sync()
	if c.pool != nil {
		c.pool.Close()
	}
}

// submit runs one record in its own browser tab with its own staging dir.
func (c *runComponents) submit(ctx context.Context, cfg *config.Config, record *schemas.CaseRecord, logger *zap.Logger) (*schemas.RunResult, error) {
	dir, err := c.staging.RunDir(record.RecordID)
	if err != nil {
		return nil, fmt.Errorf("preparing staging dir: %w", err)
	}
	// Backstop for runs that never reach the capture stage; Cleanup is
	// idempotent, so the engine-owned teardown below doubling up is fine.
	defer func() { _ = c.staging.Cleanup(dir) }()

	driver, err := browser.NewDriver(ctx, cfg.Browser, dir, logger)
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	defer driver.Close(ctx)

	captureFor := func(runID string) (*capture.Pipeline, func(), error) {
		it := interact.New(driver, logger, cfg.Portal.RetryAttempts, cfg.Portal.RetryBackoff)
		trigger := interact.FromBinding(cfg.Portal.Screens[config.ScreenCommon]["download"])
		chain := capture.DefaultChain(driver, it, c.staging, dir, trigger, cfg.Capture, logger)
		cleanup := func() { _ = c.staging.Cleanup(dir) }
		return capture.NewPipeline(c.recovery, logger, chain...), cleanup, nil
	}

	engine := workflow.NewEngine(driver, cfg, c.storage, c.notifier, c.ledger, captureFor, logger)
	return engine.Run(ctx, record)
}

func printResult(cmd *cobra.Command, res *schemas.RunResult) {
	if res == nil {
		return
	}
	if res.Success {
		cmd.Printf("record %s: submitted, completion number %s\n", res.RecordID, res.CompletionNumber)
		return
	}
	cmd.Printf("record %s: %s", res.RecordID, res.Classification)
	if res.FailureCode != "" {
		cmd.Printf(" (code %s)", res.FailureCode)
	}
	if res.FailureMessage != "" {
		cmd.Printf(": %s", res.FailureMessage)
	}
	cmd.Println()
}
