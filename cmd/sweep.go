package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove credentials that never got an officer profile",
	Long: `Runs one pass of the orphan sweeper: credentials older than ORPHAN_GRACE
without an officer profile are deleted and their sessions revoked.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		removed, err := a.Sweeper.Run(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned credentials\n", removed)
		return err
	},
}
