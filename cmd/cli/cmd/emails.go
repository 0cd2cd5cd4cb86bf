package cmd

import (
	"github.com/spf13/cobra"
)

var emailsLimit int

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Show recently processed emails",
	Long: `Show the most recent email processing records: what was scanned,
what was blocked, and what produced or updated an order.`,
	RunE: runEmails,
}

func init() {
	emailsCmd.Flags().IntVarP(&emailsLimit, "limit", "n", 50, "Maximum number of records to show")
	rootCmd.AddCommand(emailsCmd)
}

func runEmails(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	records, err := client.GetEmails(emailsLimit)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	return formatter.PrintEmails(records)
}
