// Package email provides inbox access for the purchase scan: a Gmail
// client, the message types the pipeline consumes, and search-query
// construction for retail email.
package email

import (
	"strings"
	"time"
)

// Client is the interface the scan pipeline fetches messages through.
type Client interface {
	// Search performs a Gmail search query and returns matching messages,
	// oldest first.
	Search(query string) ([]Message, error)

	// GetMessage retrieves the full content of a specific message.
	GetMessage(id string) (*Message, error)

	// HealthCheck verifies the client connection is working.
	HealthCheck() error

	// Close cleans up resources.
	Close() error
}

// Message is one email with parsed content.
type Message struct {
	ID       string            `json:"id"`
	ThreadID string            `json:"thread_id"`
	From     string            `json:"from"`
	Subject  string            `json:"subject"`
	Snippet  string            `json:"snippet"`
	Date     time.Time         `json:"date"`
	Headers  map[string]string `json:"headers"`

	PlainText string `json:"plain_text"`
	HTMLText  string `json:"html_text"`

	Labels []string `json:"labels,omitempty"`
}

// SenderName extracts the display-name half of the From header, used as the
// merchant display name. Falls back to the bare address.
func (m *Message) SenderName() string {
	from := m.From
	if i := strings.IndexByte(from, '<'); i > 0 {
		name := strings.TrimSpace(strings.ReplaceAll(from[:i], `"`, ""))
		if name != "" {
			return name
		}
	}
	return from
}

// Body returns the best text for extraction: plain text when present,
// otherwise the already-stripped HTML text.
func (m *Message) Body() string {
	if m.PlainText != "" {
		return m.PlainText
	}
	return m.HTMLText
}

// SearchQuery is a Gmail search configuration for one scan.
type SearchQuery struct {
	Query      string     `json:"query"`
	MaxResults int        `json:"max_results"`
	AfterDate  *time.Time `json:"after_date,omitempty"`
	UnreadOnly bool       `json:"unread_only"`
}
