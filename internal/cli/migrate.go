package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"popfitup-backend/internal/infrastructure/database"
	"popfitup-backend/internal/interfaces/router"
)

func newMigrateCmd() *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(sqlitePath)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "use a SQLite file instead of DATABASE_URL")

	return cmd
}

func runMigrate(sqlitePath string) error {
	cfg, err := loadConfig(sqlitePath)
	if err != nil {
		return err
	}
	db, err := router.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("migrations applied")
	return nil
}
