package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	cliapi "github.com/jkoufopoulos/shopq-prototype-sub002/internal/cli"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// KeyMap represents the key bindings for the interactive table
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Reload  key.Binding
	Return  key.Binding
	Dismiss key.Binding
	Details key.Binding
	Help    key.Binding
	Quit    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Return: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark returned"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// InteractiveTable represents the interactive table model
type InteractiveTable struct {
	table         table.Model
	orders        []orders.Order
	client        *cliapi.Client
	formatter     *cliapi.OutputFormatter
	fields        []string
	keys          KeyMap
	loading       bool
	spinner       spinner.Model
	err           error
	message       string
	showHelp      bool
	quitting      bool
	config        *cliapi.Config
	useColor      bool
	showConfirm   bool
	pendingKey    string
	pendingStatus orders.OrderStatus
}

// NewInteractiveTable creates a new interactive table
func NewInteractiveTable(list []orders.Order, client *cliapi.Client, formatter *cliapi.OutputFormatter, fieldsFlag string, config *cliapi.Config) (*InteractiveTable, error) {
	fields := parseFields(fieldsFlag)
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	columns := make([]table.Column, len(fields))
	for i, field := range fields {
		columns[i] = table.Column{
			Title: getFieldDisplayName(field),
			Width: calculateColumnWidth(field, list),
		}
	}

	rows := make([]table.Row, len(list))
	for i := range list {
		rows[i] = orderToRow(&list[i], fields)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	useColor := !config.NoColor && isatty.IsTerminal(os.Stdout.Fd())

	if useColor {
		styles := table.DefaultStyles()
		styles.Header = styles.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(false)
		styles.Selected = styles.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
		t.SetStyles(styles)
	}

	return &InteractiveTable{
		table:     t,
		orders:    list,
		client:    client,
		formatter: formatter,
		fields:    fields,
		keys:      DefaultKeyMap(),
		spinner:   s,
		config:    config,
		useColor:  useColor,
	}, nil
}

// Init initializes the interactive table
func (m InteractiveTable) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m InteractiveTable) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showConfirm {
			switch {
			case key.Matches(msg, m.keys.Confirm):
				return m.confirmStatusChange()
			case key.Matches(msg, m.keys.Cancel):
				m.showConfirm = false
				m.pendingKey = ""
				m.message = "Cancelled"
				return m, nil
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			return m.handleReload()

		case key.Matches(msg, m.keys.Up):
			m.table, cmd = m.table.Update(msg)
			return m, cmd

		case key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd

		case key.Matches(msg, m.keys.Details):
			return m.handleDetails()

		case key.Matches(msg, m.keys.Return):
			return m.requestStatusChange(orders.StatusReturned)

		case key.Matches(msg, m.keys.Dismiss):
			return m.requestStatusChange(orders.StatusDismissed)
		}

	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		return m, nil

	case reloadCompleteMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.message = fmt.Sprintf("Error reloading orders: %v", msg.err)
		} else {
			m = m.setOrders(msg.orders)
			m.message = fmt.Sprintf("Loaded %d orders", len(msg.orders))
		}
		return m, nil

	case statusChangeMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.message = fmt.Sprintf("Error updating order: %v", msg.err)
		} else {
			m = m.replaceOrder(msg.order)
			m.message = fmt.Sprintf("Order marked %s", msg.order.Status)
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the interactive table
func (m InteractiveTable) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder

	if m.showHelp {
		b.WriteString(m.helpView())
		b.WriteString("\n")
	}

	if m.loading {
		b.WriteString(fmt.Sprintf("%s Loading...\n", m.spinner.View()))
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.showConfirm {
		confirmMsg := fmt.Sprintf("Mark %s as %s? (y/N): ", m.pendingKey, m.pendingStatus)
		if m.useColor {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render(confirmMsg))
		} else {
			b.WriteString(confirmMsg)
		}
		b.WriteString("\n")
	}

	if m.message != "" {
		color := lipgloss.Color("82")
		if m.err != nil {
			color = lipgloss.Color("196")
		}
		if m.useColor {
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render(m.message))
		} else {
			b.WriteString(m.message)
		}
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())

	return b.String()
}

// helpView returns the help view
func (m InteractiveTable) helpView() string {
	help := strings.Builder{}
	help.WriteString("Help:\n")
	help.WriteString("  ↑/k         - Move up\n")
	help.WriteString("  ↓/j         - Move down\n")
	help.WriteString("  r           - Reload orders\n")
	help.WriteString("  m           - Mark selected order returned\n")
	help.WriteString("  d           - Dismiss selected order\n")
	help.WriteString("  enter       - View details\n")
	help.WriteString("  ?           - Toggle help\n")
	help.WriteString("  q/ctrl+c    - Quit\n")
	return help.String()
}

// statusLine returns the status line
func (m InteractiveTable) statusLine() string {
	if len(m.orders) == 0 {
		return "No orders found"
	}

	selected := m.table.Cursor()
	total := len(m.orders)
	return fmt.Sprintf("Order %d of %d | Press ? for help", selected+1, total)
}

// calculateColumnWidth calculates the width for a column based on its content
func calculateColumnWidth(field string, list []orders.Order) int {
	width := len(getFieldDisplayName(field))

	samples := len(list)
	if samples > 10 {
		samples = 10
	}

	for i := 0; i < samples; i++ {
		value := getFieldValue(&list[i], field)
		if len(value) > width {
			width = len(value)
		}
	}

	if width < 8 {
		width = 8
	}
	if width > 50 {
		width = 50
	}

	return width
}

// orderToRow converts an order to a table row
func orderToRow(o *orders.Order, fields []string) table.Row {
	row := make(table.Row, len(fields))
	for i, field := range fields {
		row[i] = getFieldValue(o, field)
	}
	return row
}

// getFieldValue returns the value for a specific field from an order
func getFieldValue(o *orders.Order, field string) string {
	switch field {
	case "key":
		return o.OrderKey
	case "merchant":
		return o.MerchantName
	case "item":
		return o.ItemSummary
	case "order":
		return o.OrderID
	case "tracking":
		return o.TrackingNumber
	case "amount":
		if o.Amount != nil {
			return o.Amount.StringFixed(2) + " " + o.Currency
		}
		return ""
	case "purchased":
		if o.PurchaseDate != nil {
			return o.PurchaseDate.Format("2006-01-02")
		}
		return ""
	case "delivered":
		if o.DeliveryDate != nil {
			return o.DeliveryDate.Format("2006-01-02")
		}
		return ""
	case "returnby":
		if o.ReturnByDate != nil {
			return o.ReturnByDate.Format("2006-01-02")
		}
		return ""
	case "confidence":
		return string(o.DeadlineConfidence)
	case "status":
		return string(o.Status)
	case "created":
		return o.CreatedAt.Format("2006-01-02")
	default:
		return ""
	}
}

// reloadCompleteMsg is sent when a reload operation completes
type reloadCompleteMsg struct {
	orders []orders.Order
	err    error
}

// statusChangeMsg is sent when a status update completes
type statusChangeMsg struct {
	order *orders.Order
	err   error
}

// handleReload refetches the order list
func (m InteractiveTable) handleReload() (InteractiveTable, tea.Cmd) {
	m.loading = true
	m.message = ""
	m.err = nil

	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			list, err := m.client.GetOrders()
			return reloadCompleteMsg{orders: list, err: err}
		},
	)
}

// handleDetails shows the selected order's details inline
func (m InteractiveTable) handleDetails() (InteractiveTable, tea.Cmd) {
	o, ok := m.selectedOrder()
	if !ok {
		m.message = "No orders to view"
		return m, nil
	}

	returnBy := "N/A"
	if o.ReturnByDate != nil {
		returnBy = o.ReturnByDate.Format("2006-01-02")
	}
	amount := "N/A"
	if o.Amount != nil {
		amount = o.Amount.StringFixed(2) + " " + o.Currency
	}

	m.message = fmt.Sprintf(`
Order Details:
Key: %s
Merchant: %s (%s)
Item: %s
Order ID: %s
Tracking: %s
Amount: %s
Return By: %s (%s)
Status: %s
Source Emails: %d
`,
		o.OrderKey,
		o.MerchantName,
		o.MerchantDomain,
		o.ItemSummary,
		o.OrderID,
		o.TrackingNumber,
		amount,
		returnBy,
		o.DeadlineConfidence,
		o.Status,
		len(o.SourceEmailIDs),
	)
	return m, nil
}

// requestStatusChange asks for confirmation before changing status
func (m InteractiveTable) requestStatusChange(status orders.OrderStatus) (InteractiveTable, tea.Cmd) {
	o, ok := m.selectedOrder()
	if !ok {
		m.message = "No orders selected"
		return m, nil
	}

	m.showConfirm = true
	m.pendingKey = o.OrderKey
	m.pendingStatus = status
	m.message = ""
	m.err = nil

	return m, nil
}

// confirmStatusChange executes the status update after confirmation
func (m InteractiveTable) confirmStatusChange() (InteractiveTable, tea.Cmd) {
	m.showConfirm = false
	m.loading = true
	m.message = ""
	m.err = nil

	key := m.pendingKey
	status := m.pendingStatus
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			o, err := m.client.UpdateOrderStatus(key, status)
			return statusChangeMsg{order: o, err: err}
		},
	)
}

func (m InteractiveTable) selectedOrder() (*orders.Order, bool) {
	if len(m.orders) == 0 {
		return nil, false
	}
	selected := m.table.Cursor()
	if selected < 0 || selected >= len(m.orders) {
		return nil, false
	}
	return &m.orders[selected], true
}

// setOrders replaces the table contents
func (m InteractiveTable) setOrders(list []orders.Order) InteractiveTable {
	m.orders = list
	rows := make([]table.Row, len(list))
	for i := range list {
		rows[i] = orderToRow(&list[i], m.fields)
	}
	m.table.SetRows(rows)
	return m
}

// replaceOrder swaps the updated order into the table
func (m InteractiveTable) replaceOrder(o *orders.Order) InteractiveTable {
	if o == nil {
		return m
	}
	for i := range m.orders {
		if m.orders[i].OrderKey == o.OrderKey {
			m.orders[i] = *o
			break
		}
	}
	return m.setOrders(m.orders)
}

// runInteractiveTable runs the interactive table
func runInteractiveTable(list []orders.Order, client *cliapi.Client, formatter *cliapi.OutputFormatter, fieldsFlag string, config *cliapi.Config) error {
	interactiveTable, err := NewInteractiveTable(list, client, formatter, fieldsFlag, config)
	if err != nil {
		return err
	}

	p := tea.NewProgram(interactiveTable, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
