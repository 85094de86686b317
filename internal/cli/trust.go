package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newTrustCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Inspect contributor trust",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "audit",
		Short: "Compare stored approved counts with approved submissions",
		Long: `Recount approved submissions per user and report every account whose
stored approved count differs. Exits with status 1 when drift is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, true, func(ctx context.Context, rt *Runtime) error {
				drift, err := rt.Services.Users.AuditTrust(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "trust audit", err)
				}
				threshold := rt.Services.Gate.Threshold()
				err = newPrinter(cmd, opts).emit(drift, func(w io.Writer) {
					if len(drift) == 0 {
						fmt.Fprintf(w, "approved counts consistent (threshold %d)\n", threshold)
						return
					}
					for _, d := range drift {
						fmt.Fprintf(w, "%d\t%s\tstored=%d\tactual=%d\n", d.UserID, d.Username, d.Stored, d.Actual)
					}
				})
				if err != nil {
					return err
				}
				if len(drift) > 0 {
					return NewExitError(ExitFailure, fmt.Sprintf("%d account(s) with approved count drift", len(drift)))
				}
				return nil
			})
		},
	})

	return cmd
}
