package cmd

import (
	"fmt"

	"github.com/noteghar/noteghar/internal/app"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/spf13/cobra"
)

func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	cmd.AddCommand(userCreateCmd(), userSetRoleCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var email, password, role string
	var superuser bool

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account with any role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.Create(cmd.Context(), args[0], email, password, role, superuser)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", user.Username, user.Role, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 12 characters)")
	cmd.Flags().StringVar(&role, "role", model.RoleStudent, "student, moderator or admin")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant every capability")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func userSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <role>",
		Short: "Promote or demote an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.SetRole(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Username, user.Role)
				return nil
			})
		},
	}
}
