package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileLimit int

var ordersReconcileCmd = &cobra.Command{
	Use:   "orders:reconcile",
	Short: "Retry orders that were paid but not yet recorded by the API",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := bootstrap()
		if err != nil {
			return err
		}
		pending, err := svc.Outbox.CountPending()
		if err != nil {
			return err
		}
		recorded, failed, err := svc.Orders.Reconcile(context.Background(), reconcileLimit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pending: %d, recorded: %d, failed: %d\n", pending, recorded, failed)
		return nil
	},
}

func init() {
	ordersReconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 100, "Maximum outbox rows to process")
	Register(ordersReconcileCmd)
}
