package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmring/lmring/internal/database"
	"github.com/lmring/lmring/internal/di"
	"github.com/lmring/lmring/internal/tools/common"
	"github.com/lmring/lmring/internal/tools/ui"
)

type RunnerFactory func() (*di.MigrationRunner, error)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool

	newRunner RunnerFactory
	exit      func(int)
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(di.InitializeMigrationRunner, os.Exit)
}

func newRootCommand(factory RunnerFactory, exit func(int)) *cobra.Command {
	opts := &options{newRunner: factory, exit: exit}
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Database migration and maintenance tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	rankings := &cobra.Command{Use: "rankings", Short: "Model ranking maintenance"}
	rankings.AddCommand(newAction(opts, "recompute", "Rebuild model rankings from votes", "rankings recompute", recomputeRankings))

	sessions := &cobra.Command{Use: "sessions", Short: "Session maintenance"}
	sessions.AddCommand(newAction(opts, "cleanup", "Delete expired sessions", "sessions cleanup", cleanupSessions))

	cmd.AddCommand(
		newAction(opts, "up", "Apply schema migrations and bootstrap the admin", "migrate up", migrateUp),
		newAction(opts, "status", "Show which tables exist", "migrate status", schemaStatus),
		newAction(opts, "plan", "Show what up would create (dry-run)", "migrate plan", plan),
		rankings,
		sessions,
	)
	return cmd
}

type action func(ctx context.Context, r *di.MigrationRunner) ([]string, error)

func newAction(opts *options, use, short, title string, fn action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, title, func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				r, err := opts.newRunner()
				if err != nil {
					return nil, err
				}
				defer closeRunner(r)
				return fn(ctx, r)
			})
			report(cmd.OutOrStdout(), opts, title, details, err)
			return nil
		},
	}
}

func report(w io.Writer, opts *options, title string, details []string, err error) {
	if opts.ci {
		common.WriteCIResult(w, err == nil, title, details, err)
	}
	if err != nil {
		opts.exit(common.ExitFailure)
	}
}

func migrateUp(_ context.Context, r *di.MigrationRunner) ([]string, error) {
	if err := r.Run(); err != nil {
		return nil, err
	}
	return []string{"schema migration applied", "bootstrap admin synced"}, nil
}

func schemaStatus(ctx context.Context, r *di.MigrationRunner) ([]string, error) {
	sqlDB, err := r.DB().DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	tables, err := database.SchemaStatus(r.DB())
	if err != nil {
		return nil, err
	}
	details := []string{"database reachable"}
	missing := 0
	for _, t := range tables {
		state := "present"
		if !t.Present {
			state = "missing"
			missing++
		}
		details = append(details, fmt.Sprintf("%s: %s", t.Table, state))
	}
	details = append(details, fmt.Sprintf("missing tables: %d", missing))
	return details, nil
}

func plan(_ context.Context, r *di.MigrationRunner) ([]string, error) {
	tables, err := database.SchemaStatus(r.DB())
	if err != nil {
		return nil, err
	}
	details := make([]string, 0, len(tables)+1)
	for _, t := range tables {
		if t.Present {
			details = append(details, "would reconcile columns and indexes of "+t.Table)
		} else {
			details = append(details, "would create "+t.Table)
		}
	}
	details = append(details, "no mutation executed in plan mode")
	return details, nil
}

func recomputeRankings(ctx context.Context, r *di.MigrationRunner) ([]string, error) {
	n, err := r.RecomputeRankings(ctx)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("models ranked: %d", n)}, nil
}

func cleanupSessions(ctx context.Context, r *di.MigrationRunner) ([]string, error) {
	n, err := r.CleanupSessions(ctx)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("expired sessions deleted: %d", n)}, nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}

func closeRunner(r *di.MigrationRunner) {
	if r == nil || r.DB() == nil {
		return
	}
	if sqlDB, err := r.DB().DB(); err == nil {
		_ = sqlDB.Close()
	}
}
