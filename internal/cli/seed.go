package cli

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"popfitup-backend/internal/application/catalog"
	"popfitup-backend/internal/infrastructure/database"
	"popfitup-backend/internal/interfaces/router"
)

//go:embed seed.json
var sampleListings []byte

func newSeedCmd() *cobra.Command {
	var sqlitePath, file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load listings into the catalog",
		Long:  "Upsert listings from a JSON feed (an array of records). Without --file a small sample catalog is loaded.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, sqlitePath, file)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "use a SQLite file instead of DATABASE_URL")
	cmd.Flags().StringVar(&file, "file", "", "JSON feed to import")

	return cmd
}

func runSeed(cmd *cobra.Command, sqlitePath, file string) error {
	data := sampleListings
	if file != "" {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			return fmt.Errorf("reading feed: %w", err)
		}
	}
	var recs []catalog.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("decoding feed: %w", err)
	}

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
	n, err := catalog.Import(cmd.Context(), db, recs)
	if err != nil {
		return err
	}
	log.Info().Int("count", n).Msg("listings imported")
	return nil
}
