package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/lmring/lmring/internal/config"
	"github.com/lmring/lmring/internal/database"
	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/tools/common"
	"github.com/lmring/lmring/internal/tools/ui"
)

// Opener returns the loaded config and an open database handle.
type Opener func(envFile string) (*config.Config, *gorm.DB, error)

type options struct {
	envFile             string
	bootstrapAdminEmail string
	ci                  bool

	open Opener
	exit func(int)
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(openConfigDB, os.Exit)
}

func newRootCommand(open Opener, exit func(int)) *cobra.Command {
	opts := &options{open: open, exit: exit}
	cmd := &cobra.Command{Use: "seed", Short: "Bootstrap admin seeding", SilenceUsage: true, SilenceErrors: true}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.bootstrapAdminEmail, "bootstrap-admin-email", "", "override BOOTSTRAP_ADMIN_EMAIL")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts))
	return cmd
}

func (o *options) adminEmail(cfg *config.Config) string {
	if o.bootstrapAdminEmail != "" {
		return strings.TrimSpace(strings.ToLower(o.bootstrapAdminEmail))
	}
	return strings.TrimSpace(strings.ToLower(cfg.BootstrapAdminEmail))
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Create or promote the bootstrap admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := opts.open(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)
				email := opts.adminEmail(cfg)
				report, err := database.SeedSync(db, email, cfg.BootstrapAdminPassword)
				if err != nil {
					return nil, err
				}
				return describeReport(email, report), nil
			})
			finish(cmd, opts, "seed apply", details, err)
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what apply would change",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, db, err := opts.open(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)
				email := opts.adminEmail(cfg)
				if email == "" {
					return []string{"BOOTSTRAP_ADMIN_EMAIL not set, nothing to do"}, nil
				}
				var user domain.User
				err = db.WithContext(ctx).Where("email = ?", email).First(&user).Error
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					return []string{"would create admin " + email}, nil
				case err != nil:
					return nil, err
				case user.Role == domain.RoleAdmin && user.Status == domain.StatusActive:
					return []string{email + " is already an active admin"}, nil
				default:
					return []string{fmt.Sprintf("would promote %s (role=%s status=%s)", email, user.Role, user.Status)}, nil
				}
			})
			finish(cmd, opts, "seed dry-run", details, err)
			return nil
		},
	}
}

func describeReport(email string, r *database.SeedReport) []string {
	switch {
	case r.Noop && email == "":
		return []string{"BOOTSTRAP_ADMIN_EMAIL not set, nothing to do"}
	case r.Noop:
		return []string{email + " is already an active admin"}
	}
	var out []string
	if r.CreatedAdmin {
		out = append(out, "created admin "+email)
	}
	if r.PromotedAdmin {
		out = append(out, "promoted "+email+" to active admin")
	}
	if r.SetPassword {
		out = append(out, "local password set")
	}
	return out
}

func finish(cmd *cobra.Command, opts *options, title string, details []string, err error) {
	if opts.ci {
		common.WriteCIResult(cmd.OutOrStdout(), err == nil, title, details, err)
	}
	if err != nil {
		opts.exit(common.ExitFailure)
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		return fn(context.Background())
	}
	return ui.Run(title, fn)
}

func openConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	cfg, err := common.LoadConfig(envFile)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
