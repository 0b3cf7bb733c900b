package cmd

import (
	"errors"

	"haven/config/database"
	"haven/store/sqlstore"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the journal tables in the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.Driver == "memory" {
			return errors.New("the memory driver has no schema to migrate")
		}
		db, dialect, err := database.OpenSQL(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return sqlstore.Migrate(cmd.Context(), db, dialect)
	},
}
