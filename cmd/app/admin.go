package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
)

func createAdminCmd() *cobra.Command {
	var (
		email    string
		password string
		super    bool
	)
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified admin account or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return errors.New("--email is required")
			}
			if len(password) < 8 {
				return errors.New("--password must be at least 8 characters")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := repository.Open(cfg.DSN())
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}

			hash, err := security.NewPasswordHasher().Hash(password)
			if err != nil {
				return err
			}
			role := domain.RoleAdmin
			if super {
				role = domain.RoleSuperAdmin
			}
			user, err := repository.NewUserRepository(db).UpsertAdmin(cmd.Context(), email, hash, role)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Printf("%s %s is ready (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().BoolVar(&super, "super", false, "grant the super_admin role")
	return cmd
}
