// Package cli implements hymnctl, the operations command line.
package cli

import (
	"context"
	"fmt"
	"slices"

	"hymnbook/internal/bootstrap"
	"hymnbook/internal/config"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Runtime is what a command needs to talk to the store.
type Runtime struct {
	Config   *config.Config
	DB       *gorm.DB
	Services *bootstrap.Services
}

// Close releases the database connection.
func (r *Runtime) Close() {
	if sqlDB, err := r.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// OpenFunc opens a runtime. applySchema is false for migration commands,
// which manage the schema themselves.
type OpenFunc func(ctx context.Context, applySchema bool) (*Runtime, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
	Open   OpenFunc
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// OpenFromConfig loads configuration from the environment and connects.
func OpenFromConfig(ctx context.Context, applySchema bool) (*Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: applySchema})
	if err != nil {
		return nil, err
	}
	svc, err := bootstrap.NewServices(cfg, db, rdb)
	if err != nil {
		return nil, err
	}
	return &Runtime{Config: cfg, DB: db, Services: svc}, nil
}

// NewRootCommand creates the hymnctl root command. open may be nil to use
// OpenFromConfig.
func NewRootCommand(open OpenFunc) *cobra.Command {
	if open == nil {
		open = OpenFromConfig
	}
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:   "hymnctl",
		Short: "Operate the hymnbook backend",
		Long:  "Schema migrations, admin accounts, contributor trust audits and demo data for the hymnbook API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newAdminCommand(opts))
	cmd.AddCommand(newTrustCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	return cmd
}

// withRuntime opens a runtime for the duration of fn.
func withRuntime(cmd *cobra.Command, opts *RootOptions, applySchema bool, fn func(context.Context, *Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := opts.Open(ctx, applySchema)
	if err != nil {
		return WrapExitError(ExitCommandError, "open runtime", err)
	}
	defer rt.Close()
	return fn(ctx, rt)
}
