package cmd

import (
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show upcoming return deadlines",
	Long: `Show the return watch: orders with a known or estimated return-by
date that has not yet passed, with deadlines expiring soon listed first.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	watch, err := client.GetReturnWatch()
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintReturnWatch(watch)
}
