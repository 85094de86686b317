package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"hymnbook/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending SQL migrations (PostgreSQL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, false, func(ctx context.Context, rt *Runtime) error {
				if database.Dialect(rt.DB) != database.DriverPostgres {
					return NewExitError(ExitCommandError, "SQL migrations target PostgreSQL; use 'migrate auto' for SQLite")
				}
				if err := database.RunMigrations(ctx, rt.DB); err != nil {
					return WrapExitError(ExitFailure, "sql migrations failed", err)
				}
				return newPrinter(cmd, opts).emit(map[string]string{"applied": "sql"}, func(w io.Writer) {
					fmt.Fprintln(w, "sql migrations applied")
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "auto",
		Short: "Create tables from the models with AutoMigrate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, false, func(ctx context.Context, rt *Runtime) error {
				rt.Config.DBSchemaMode = database.SchemaModeAuto
				if err := database.ApplySchema(ctx, rt.DB, rt.Config); err != nil {
					return WrapExitError(ExitFailure, "auto schema apply failed", err)
				}
				return newPrinter(cmd, opts).emit(map[string]string{"applied": "auto"}, func(w io.Writer) {
					fmt.Fprintln(w, "automigrations applied")
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema policy and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, false, func(ctx context.Context, rt *Runtime) error {
				status, err := database.GetSchemaStatus(ctx, rt.DB, rt.Config)
				if err != nil {
					return WrapExitError(ExitFailure, "schema status failed", err)
				}
				return newPrinter(cmd, opts).emit(status, func(w io.Writer) {
					fmt.Fprintf(w, "mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
						status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
						len(status.AppliedVersions), len(status.PendingMigrations))
					for _, m := range status.PendingMigrations {
						fmt.Fprintf(w, "pending: %s\n", m.String())
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one applied SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid version %q", args[0]), err)
			}
			return withRuntime(cmd, opts, false, func(ctx context.Context, rt *Runtime) error {
				if err := database.RollbackMigration(ctx, rt.DB, version); err != nil {
					return WrapExitError(ExitFailure, "rollback failed", err)
				}
				return newPrinter(cmd, opts).emit(map[string]int{"rolledBack": version}, func(w io.Writer) {
					fmt.Fprintf(w, "rolled back migration %d\n", version)
				})
			})
		},
	})

	return cmd
}
