package cmd

import (
	"github.com/spf13/cobra"
)

var (
	listAll         bool
	listInteractive bool
	listFields      string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your orders",
	Long: `List the orders built from your inbox. By default only active,
recent orders are shown; use --all for the full purchase history.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include older and closed purchases")
	listCmd.Flags().BoolVarP(&listInteractive, "interactive", "i", false, "Browse orders in an interactive table")
	listCmd.Flags().StringVar(&listFields, "fields", "", "Comma-separated fields for the interactive table")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	config, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	fetch := client.GetOrders
	if listAll {
		fetch = client.GetAllOrders
	}

	list, err := fetch()
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	if listInteractive {
		return runInteractiveTable(list, client, formatter, listFields, config)
	}

	return formatter.PrintOrders(list)
}
