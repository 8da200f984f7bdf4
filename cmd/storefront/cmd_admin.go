package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/providers"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

func init() {
	adminCreateCmd.Flags().StringVar(&adminName, "name", "Administrator", "display name")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "login email (required)")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "password, at least 8 characters (required)")
}

// storefront admin:create
var adminCreateCmd = &cobra.Command{
	Use:   "admin:create",
	Short: "Create an admin user, or promote an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminEmail == "" || adminPassword == "" {
			return errors.New("--email and --password are required")
		}

		svc, err := providers.Boot()
		if err != nil {
			return err
		}

		user, err := svc.Auth.CreateAdmin(cmd.Context(), adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		fmt.Printf("Admin ready: #%d %s\n", user.ID, user.Email)
		return nil
	},
}
