package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/internal/models"
	"github.com/deptdocs/revisor/internal/service"
	"github.com/deptdocs/revisor/internal/store"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage directory users",
	}

	cmd.AddCommand(userCreateCmd())

	return cmd
}

func userCreateCmd() *cobra.Command {
	var req models.CreateUserRequest

	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			if !cfg.UsesPostgres() {
				return errors.New("user create requires STORE_BACKEND=postgres; the memory backend uses BOOTSTRAP_ADMIN_KEY")
			}

			ctx := cmd.Context()

			pool, err := openPool(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			req.Role = models.Role(role)

			users := service.NewUserService(store.NewUserStore(store.Base{Pool: pool, Log: log}), log)

			u, apiKey, err := users.CreateUser(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:         %s\n", u.ID)
			fmt.Fprintf(out, "username:   %s\n", u.Username)
			fmt.Fprintf(out, "department: %s\n", u.DepartmentID)
			fmt.Fprintf(out, "role:       %s\n", u.Role)
			fmt.Fprintf(out, "api key:    %s\n", apiKey)
			fmt.Fprintln(out, "\nStore the API key now; it cannot be shown again.")

			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "display name (defaults to username)")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.DepartmentID, "department", "", "department id (required)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleEditor), "admin, editor or viewer")

	return cmd
}
