package cmd

import (
	"github.com/spf13/cobra"

	cliapi "github.com/jkoufopoulos/shopq-prototype-sub002/internal/cli"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Control the inbox scanner",
}

var scanStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scanner state and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanAction(func(c *cliapi.Client) (*cliapi.ScanStatus, error) {
			return c.GetScanStatus()
		}, "")
	},
}

var scanForce bool

var scanRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scan now and wait for it to finish",
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanAction(func(c *cliapi.Client) (*cliapi.ScanStatus, error) {
			return c.RunScan(scanForce)
		}, "Scan complete")
	},
}

var scanPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the background scanner",
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanAction(func(c *cliapi.Client) (*cliapi.ScanStatus, error) {
			return c.PauseScan()
		}, "Scanner paused")
	},
}

var scanResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the background scanner",
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanAction(func(c *cliapi.Client) (*cliapi.ScanStatus, error) {
			return c.ResumeScan()
		}, "Scanner resumed")
	},
}

func init() {
	scanRunCmd.Flags().BoolVar(&scanForce, "force", false, "bypass the manual-scan rate limit")
	scanCmd.AddCommand(scanStatusCmd, scanRunCmd, scanPauseCmd, scanResumeCmd)
	rootCmd.AddCommand(scanCmd)
}

func scanAction(call func(*cliapi.Client) (*cliapi.ScanStatus, error), successMsg string) error {
	config, formatter, client, err := initializeClient()
	if err != nil {
		return err
	}

	status, err := call(client)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	if successMsg != "" && !config.Quiet {
		formatter.PrintSuccess(successMsg)
	}
	return formatter.PrintScanStatus(status)
}
