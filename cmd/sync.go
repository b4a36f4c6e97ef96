package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncForce   bool
	syncTimeout time.Duration
)

// syncCmd runs one reconciliation pass and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass against the shared database",
	Long: `Runs a single local/remote reconciliation pass and prints the outcome.

Examples:
  # One pass, honoring the cooldown
  pi-account-checker sync

  # Bypass the cooldown
  pi-account-checker sync --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := setup()
		if err != nil {
			return err
		}
		defer deps.logger.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		outcome, err := deps.accountsSvc.Sync(ctx, syncForce)
		if err != nil {
			return err
		}

		if !outcome.Ran {
			deps.logger.Warn("Sync did not run", zap.String("reason", outcome.Reason))
			fmt.Printf("sync skipped: %s\n", outcome.Reason)
			return nil
		}

		fmt.Printf("sync finished: pushed=%d pulled=%d skipped=%d (keys=%d local_only=%d remote_only=%d in_sync=%d)\n",
			outcome.Pushed, outcome.Pulled, outcome.Skipped,
			outcome.Summary.TotalKeys, outcome.Summary.LocalOnly,
			outcome.Summary.RemoteOnly, outcome.Summary.InSync)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Bypass the sync cooldown")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 5*time.Minute, "Overall pass timeout")
	RootCmd.AddCommand(syncCmd)
}
