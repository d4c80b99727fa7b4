package commands

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the store schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := a.Close(); err != nil {
				return err
			}
			printFree(cmd.OutOrStdout(), "✓ %s schema is up to date", a.cfg.Store)
			return nil
		},
	}
}
