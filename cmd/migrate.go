package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/config"
	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [name]",
	Short: "Run pending migrations, or create a new pair with a name argument",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		name := args[0]
		if name == "" {
			log.Fatal("migration name required")
		}
		return database.CreateMigration(name)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return database.MigrateUp(cfg.DatabaseURL())
}
