package cli

import (
	"context"
	"fmt"
	"io"

	"hymnbook/internal/seed"

	"github.com/spf13/cobra"
)

type seedFlags struct {
	admin         string
	adminPassword string
	opts          seed.Options
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	flags := &seedFlags{opts: seed.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo contributors and hymns",
		Long: `Register fake contributors, submit hymns in their name and review part of
the queue as the given admin, who is created when missing. Every account
uses the password "` + seed.DefaultPassword + `".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, true, func(ctx context.Context, rt *Runtime) error {
				if rt.Config.IsProduction() {
					return NewExitError(ExitCommandError, "refusing to seed a production database")
				}
				admin, err := rt.Services.Users.EnsureAdmin(ctx, flags.admin, flags.adminPassword)
				if err != nil {
					return WrapExitError(ExitFailure, "ensure seed admin", err)
				}

				res, err := seed.NewSeeder(rt.Services.Users, rt.Services.Submissions).Run(ctx, admin.ID, flags.opts)
				if err != nil {
					return WrapExitError(ExitFailure, "seed", err)
				}
				return newPrinter(cmd, opts).emit(res, func(w io.Writer) {
					fmt.Fprintf(w, "users=%d submitted=%d published=%d rejected=%d duplicates=%d\n",
						res.Users, res.Submitted, res.Published, res.Rejected, res.Duplicates)
				})
			})
		},
	}

	cmd.Flags().StringVar(&flags.admin, "admin", "admin", "username of the reviewing admin")
	cmd.Flags().StringVar(&flags.adminPassword, "admin-password", seed.DefaultPassword, "password used when the admin is created")
	cmd.Flags().IntVar(&flags.opts.Users, "users", flags.opts.Users, "number of contributors to register")
	cmd.Flags().IntVar(&flags.opts.Submissions, "submissions", flags.opts.Submissions, "number of hymns to submit")
	cmd.Flags().Float64Var(&flags.opts.ReviewRatio, "review-ratio", flags.opts.ReviewRatio, "share of pending hymns to review")
	cmd.Flags().Float64Var(&flags.opts.ApproveRatio, "approve-ratio", flags.opts.ApproveRatio, "share of reviews that approve")
	cmd.Flags().Int64Var(&flags.opts.Seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}
