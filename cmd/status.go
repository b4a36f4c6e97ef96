package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd resolves and prints the session status of every account.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the resolved session status of every account",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := setup()
		if err != nil {
			return err
		}
		defer deps.logger.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		statuses, err := deps.accountsSvc.List(ctx)
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Println("no accounts registered")
			return nil
		}

		now := time.Now()
		for _, s := range statuses {
			state := "inactive"
			switch {
			case s.Status.Active:
				state = "active"
			case s.Status.Uncertain:
				state = "uncertain"
			}

			remaining := "--:--:--"
			if s.Status.Uncertain {
				remaining = "??:??:??"
			} else if s.Status.ExpiresAt != nil && s.Status.ExpiresAt.After(now) {
				d := s.Status.ExpiresAt.Sub(now).Round(time.Second)
				remaining = fmt.Sprintf("%02d:%02d:%02d",
					int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
			}

			kyc := ""
			if s.Status.KYCEligible {
				kyc = " [kyc-eligible]"
			}

			fmt.Printf("%-16s %-10s %s%s\n", s.Account.Phone, state, remaining, kyc)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
