package cmd

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <order-key>",
	Short: "Show details for one order",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	key, err := validateOrderKey(args[0])
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	o, err := client.GetOrder(key)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintOrder(o)
}
