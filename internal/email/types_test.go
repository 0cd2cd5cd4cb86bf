package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSenderName(t *testing.T) {
	tests := []struct {
		name string
		from string
		want string
	}{
		{"plain display name", "Amazon.com <order-update@amazon.com>", "Amazon.com"},
		{"quoted display name", `"Nordstrom" <no-reply@nordstrom.com>`, "Nordstrom"},
		{"bare address", "orders@amazon.com", "orders@amazon.com"},
		{"empty display name", "<orders@amazon.com>", "<orders@amazon.com>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Message{From: tt.from}
			assert.Equal(t, tt.want, m.SenderName())
		})
	}
}

func TestBodyPrefersPlainText(t *testing.T) {
	m := &Message{PlainText: "plain", HTMLText: "html"}
	assert.Equal(t, "plain", m.Body())

	m = &Message{HTMLText: "html only"}
	assert.Equal(t, "html only", m.Body())
}

func TestHTMLToText(t *testing.T) {
	text := htmlToText(`<p>Your order of <b>Desk Lamp</b> &amp; more has shipped.</p>`)
	assert.Equal(t, "Your order of Desk Lamp & more has shipped.", text)
}

func TestBuildSearchQuery(t *testing.T) {
	t.Run("custom query wins", func(t *testing.T) {
		assert.Equal(t, "from:me", BuildSearchQuery(30, true, "from:me"))
	})

	t.Run("includes date and unread filters", func(t *testing.T) {
		q := BuildSearchQuery(30, true, "")
		assert.Contains(t, q, "subject:(order")
		assert.Contains(t, q, "after:")
		assert.Contains(t, q, "is:unread")
	})

	t.Run("no date filter when afterDays is zero", func(t *testing.T) {
		q := BuildSearchQuery(0, false, "")
		assert.False(t, strings.Contains(q, "after:"))
	})
}
