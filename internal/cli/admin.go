package cli

import (
	"context"
	"fmt"
	"io"

	"hymnbook/internal/models"

	"github.com/spf13/cobra"
)

type adminView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func viewOf(u *models.User) adminView {
	return adminView{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func newAdminCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant, revoke and list admin accounts",
	}

	setAdmin := func(isAdmin bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, true, func(ctx context.Context, rt *Runtime) error {
				user, err := rt.Services.Users.SetAdminByUsername(ctx, args[0], isAdmin)
				if err != nil {
					return WrapExitError(ExitFailure, "update admin flag", err)
				}
				return newPrinter(cmd, opts).emit(viewOf(user), func(w io.Writer) {
					fmt.Fprintf(w, "%s (id %d) admin=%t\n", user.Username, user.ID, user.IsAdmin)
				})
			})
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "promote <username>",
		Short: "Make a user an admin",
		Args:  cobra.ExactArgs(1),
		RunE:  setAdmin(true),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "demote <username>",
		Short: "Remove a user's admin flag",
		Args:  cobra.ExactArgs(1),
		RunE:  setAdmin(false),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, true, func(ctx context.Context, rt *Runtime) error {
				admins, err := rt.Services.Users.ListAdmins(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "list admins", err)
				}
				views := make([]adminView, 0, len(admins))
				for i := range admins {
					views = append(views, viewOf(&admins[i]))
				}
				return newPrinter(cmd, opts).emit(views, func(w io.Writer) {
					if len(views) == 0 {
						fmt.Fprintln(w, "no admins")
						return
					}
					for _, v := range views {
						fmt.Fprintf(w, "%d\t%s\n", v.ID, v.Username)
					}
				})
			})
		},
	})

	return cmd
}
