package cmd

import (
	"example.com/textile/erp/internal/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Create or update every table and index of the ERP schema`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg.DB, nil)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.AutoMigrate(db); err != nil {
			return err
		}

		log.Info().Msg("Migrations completed successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
