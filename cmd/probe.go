package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// probeCmd probes one account (or all) and prints the merged status.
var probeCmd = &cobra.Command{
	Use:   "probe [phone]",
	Short: "Probe the upstream service for one account, or all accounts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := setup()
		if err != nil {
			return err
		}
		defer deps.logger.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if len(args) == 0 {
			probed, err := deps.miningSvc.ProbeAll(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("probed %d accounts\n", probed)
			return nil
		}

		status, err := deps.miningSvc.ProbeAndMerge(ctx, args[0])
		if err != nil {
			return err
		}

		state := "inactive"
		if status.Status.Active {
			state = "active"
		}
		fmt.Printf("%s: %s", status.Account.Phone, state)
		if status.Status.ExpiresAt != nil {
			fmt.Printf(" (expires %s)", status.Status.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(probeCmd)
}
