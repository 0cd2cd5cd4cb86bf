package cmd

import (
	"github.com/spf13/cobra"
)

var returnedCmd = &cobra.Command{
	Use:   "returned",
	Short: "List orders you have returned",
	RunE:  runReturned,
}

func init() {
	rootCmd.AddCommand(returnedCmd)
}

func runReturned(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	list, err := client.GetReturnedOrders()
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintOrders(list)
}
