package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var markCmd = &cobra.Command{
	Use:   "mark <order-key> <status>",
	Short: "Change an order's status",
	Long: `Change an order's status. Valid statuses are returned, cancelled,
dismissed, and active (to undo).

Examples:
  shopq mark amazon.com:123-4567890-1234567 returned
  shopq mark target.com:ORD-991 dismissed`,
	Args: cobra.ExactArgs(2),
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)
}

func runMark(cmd *cobra.Command, args []string) error {
	config, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	key, err := validateOrderKey(args[0])
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	status, err := parseStatus(args[1])
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	o, err := client.UpdateOrderStatus(key, status)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	if !config.Quiet {
		formatter.PrintSuccess(fmt.Sprintf("Order marked %s", status))
	}
	return formatter.PrintOrder(o)
}
