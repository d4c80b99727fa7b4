// Package commands implements the roombook command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd assembles the roombook command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "roombook",
		Short: "Meeting room booking service",
		Long: `roombook admits meeting room reservations without double booking and
renders per-room availability grids.

Configuration is read from ROOMBOOK_* environment variables and, outside
production, from a .env file in the working directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSlotsCmd(),
		newCheckCmd(),
		newHashKeyCmd(),
	)
	return root
}

// Execute runs the command line and prints any failure to stderr.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		printError(root.ErrOrStderr(), err)
	}
	return err
}
