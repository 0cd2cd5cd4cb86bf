package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// OutputFormatter handles different output formats
type OutputFormatter struct {
	format  string
	quiet   bool
	noColor bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(format string, quiet bool) *OutputFormatter {
	return NewOutputFormatterWithColor(format, quiet, false)
}

// NewOutputFormatterWithColor creates a formatter with explicit color control.
// Color is also suppressed when the terminal does not support it.
func NewOutputFormatterWithColor(format string, quiet, noColor bool) *OutputFormatter {
	if !noColor && termenv.EnvColorProfile() == termenv.Ascii {
		noColor = true
	}
	return &OutputFormatter{
		format:  format,
		quiet:   quiet,
		noColor: noColor,
	}
}

// PrintOrders prints a list of orders
func (f *OutputFormatter) PrintOrders(list []orders.Order) error {
	if f.quiet {
		for _, o := range list {
			fmt.Println(o.OrderKey)
		}
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(list)
	case "table":
		return f.printOrdersTable(list)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintOrder prints a single order
func (f *OutputFormatter) PrintOrder(o *orders.Order) error {
	if f.quiet {
		fmt.Println(o.OrderKey)
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(o)
	case "table":
		return f.printOrderDetail(o)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintReturnWatch prints the return watch buckets
func (f *OutputFormatter) PrintReturnWatch(watch *lifecycle.ReturnWatch) error {
	if f.quiet {
		for _, o := range watch.ExpiringSoon {
			fmt.Println(o.OrderKey)
		}
		for _, o := range watch.Active {
			fmt.Println(o.OrderKey)
		}
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(watch)
	case "table":
		if len(watch.ExpiringSoon) == 0 && len(watch.Active) == 0 {
			fmt.Println("No return deadlines to watch.")
			return nil
		}
		if len(watch.ExpiringSoon) > 0 {
			fmt.Println(f.colorize("Expiring soon:", lipgloss.Color("208")))
			if err := f.printOrdersTable(derefOrders(watch.ExpiringSoon)); err != nil {
				return err
			}
			fmt.Println()
		}
		if len(watch.Active) > 0 {
			fmt.Println("Upcoming:")
			return f.printOrdersTable(derefOrders(watch.Active))
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintEmails prints email processing records
func (f *OutputFormatter) PrintEmails(records []orders.OrderEmail) error {
	if f.quiet {
		for _, rec := range records {
			fmt.Println(rec.EmailID)
		}
		return nil
	}

	switch f.format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(records)
	case "table":
		return f.printEmailsTable(records)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// PrintScanStatus prints the scanner state and metrics
func (f *OutputFormatter) PrintScanStatus(status *ScanStatus) error {
	if f.format == "json" {
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	state := "running"
	if !status.Running {
		state = "stopped"
	} else if status.Paused {
		state = "paused"
	}
	fmt.Printf("Scanner: %s\n", state)

	m := status.Metrics
	fmt.Printf("Runs: %d  Emails seen: %d  Processed: %d  Skipped: %d  Blocked: %d  Errors: %d\n",
		m.TotalRuns, m.TotalEmails, m.ProcessedEmails, m.SkippedEmails, m.BlockedEmails, m.ErrorEmails)
	fmt.Printf("Orders created: %d  Updated: %d  Thread hints: %d  Merges: %d  Key upgrades: %d\n",
		m.OrdersCreated, m.OrdersUpdated, m.ThreadHints, m.Merges, m.KeyUpgrades)
	if !m.LastRun.IsZero() {
		fmt.Printf("Last run: %s (%s)\n", m.LastRun.Format("2006-01-02 15:04:05"), m.LastRunID)
	}
	if m.LastError != "" {
		fmt.Printf("Last error: %s\n", m.LastError)
	}
	return nil
}

// PrintSuccess prints a success message
func (f *OutputFormatter) PrintSuccess(message string) {
	if !f.quiet {
		fmt.Printf("✓ %s\n", message)
	}
}

// PrintError prints an error message
func (f *OutputFormatter) PrintError(err error) {
	if !f.quiet {
		fmt.Fprintf(os.Stderr, "✗ Error: %v\n", err)
	}
}

// PrintInfo prints an informational message
func (f *OutputFormatter) PrintInfo(message string) {
	if !f.quiet {
		fmt.Printf("ℹ %s\n", message)
	}
}

func derefOrders(list []*orders.Order) []orders.Order {
	out := make([]orders.Order, 0, len(list))
	for _, o := range list {
		if o != nil {
			out = append(out, *o)
		}
	}
	return out
}

func (f *OutputFormatter) printOrdersTable(list []orders.Order) error {
	if len(list) == 0 {
		fmt.Println("No orders found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "MERCHANT\tITEM\tORDER ID\tRETURN BY\tCONFIDENCE\tSTATUS")

	for _, o := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(o.MerchantName, 20),
			truncate(o.ItemSummary, 30),
			truncate(o.OrderID, 22),
			formatDate(o.ReturnByDate),
			f.confidenceLabel(o.DeadlineConfidence),
			o.Status)
	}

	return nil
}

func (f *OutputFormatter) printOrderDetail(o *orders.Order) error {
	fmt.Printf("Order Key: %s\n", o.OrderKey)
	fmt.Printf("Merchant: %s (%s)\n", o.MerchantName, o.MerchantDomain)
	fmt.Printf("Item: %s\n", o.ItemSummary)
	if o.OrderID != "" {
		fmt.Printf("Order ID: %s\n", o.OrderID)
	}
	if o.TrackingNumber != "" {
		fmt.Printf("Tracking: %s\n", o.TrackingNumber)
	}
	if o.Amount != nil {
		fmt.Printf("Amount: %s %s\n", o.Amount.StringFixed(2), o.Currency)
	}
	fmt.Printf("Status: %s\n", o.Status)

	fmt.Printf("Purchased: %s\n", formatDate(o.PurchaseDate))
	if o.ShipDate != nil {
		fmt.Printf("Shipped: %s\n", formatDate(o.ShipDate))
	}
	if o.DeliveryDate != nil {
		fmt.Printf("Delivered: %s\n", formatDate(o.DeliveryDate))
	} else if o.EstimatedDelivery != nil {
		fmt.Printf("Estimated Delivery: %s\n", formatDate(o.EstimatedDelivery))
	}

	fmt.Printf("Return By: %s (%s)\n", formatDate(o.ReturnByDate), f.confidenceLabel(o.DeadlineConfidence))
	if o.ReturnWindowDays != nil {
		fmt.Printf("Return Window: %d days\n", *o.ReturnWindowDays)
	}
	if o.ReturnPortalLink != "" {
		fmt.Printf("Return Portal: %s\n", o.ReturnPortalLink)
	}

	fmt.Printf("Source Emails: %d\n", len(o.SourceEmailIDs))
	fmt.Printf("Created: %s\n", o.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n", o.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

func (f *OutputFormatter) printEmailsTable(records []orders.OrderEmail) error {
	if len(records) == 0 {
		fmt.Println("No emails found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "EMAIL ID\tRECEIVED\tMERCHANT\tTYPE\tRESULT")

	for _, rec := range records {
		result := "processed"
		if rec.Blocked {
			result = "blocked: " + truncate(rec.BlockReason, 30)
		} else if !rec.Processed {
			result = "pending"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(rec.EmailID, 20),
			rec.ReceivedAt.Format("2006-01-02"),
			truncate(rec.MerchantDomain, 20),
			rec.EmailType,
			result)
	}

	return nil
}

// confidenceLabel renders the deadline confidence, colored when enabled.
func (f *OutputFormatter) confidenceLabel(c orders.DeadlineConfidence) string {
	switch c {
	case orders.ConfidenceExact:
		return f.colorize(string(c), lipgloss.Color("82"))
	case orders.ConfidenceEstimated:
		return f.colorize(string(c), lipgloss.Color("226"))
	default:
		return f.colorize(string(c), lipgloss.Color("244"))
	}
}

func (f *OutputFormatter) colorize(s string, color lipgloss.Color) string {
	if f.noColor {
		return s
	}
	return lipgloss.NewStyle().Foreground(color).Render(s)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
