package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dropFirst bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Creates the users, products, orders and order_items tables if they
do not exist yet. With --drop-first every table is dropped beforehand,
which deletes all data.`,
	RunE: migrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&dropFirst, "drop-first", false, "Drop existing tables before creating")
}

func migrate(cmd *cobra.Command, args []string) error {
	fmt.Println("🔧 Setting up database...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if dropFirst {
		fmt.Println("🗑️  Dropping existing tables...")
		if err := db.DropSchema(cmd.Context()); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	fmt.Println("📋 Creating schema...")
	if err := db.SetupSchema(cmd.Context()); err != nil {
		return fmt.Errorf("failed to setup schema: %w", err)
	}

	fmt.Println("✅ Database setup complete!")
	return nil
}
