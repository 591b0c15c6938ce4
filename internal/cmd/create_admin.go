package cmd

import (
	"fmt"

	"github.com/matthieukhl/freshmart/internal/auth"
	"github.com/spf13/cobra"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the first admin account",
	Long: `Creates an admin account unless one already exists. Further staff
accounts are created by an admin through POST /api/auth/register.`,
	RunE: createAdmin,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "Admin display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "admin@example.com", "Admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (at least 6 characters)")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func createAdmin(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	user, created, err := a.auth.EnsureAdmin(cmd.Context(), auth.RegisterInput{
		Name:     adminName,
		Email:    adminEmail,
		Password: adminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	if !created {
		fmt.Println("ℹ️  Admin user already exists")
		return nil
	}

	fmt.Println("✅ Admin user created successfully:")
	fmt.Printf("   Name:  %s\n", user.Name)
	fmt.Printf("   Email: %s\n", user.Email)
	fmt.Printf("   Role:  %s\n", user.Role)
	return nil
}
