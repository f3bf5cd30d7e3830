package cli

import (
	"github.com/spf13/cobra"

	"github.com/rpattn/restquery/internal/config"
	"github.com/rpattn/restquery/internal/db"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			return db.RunMigrations(cfg.Database)
		},
	}
}
