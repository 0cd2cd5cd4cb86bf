package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailClient implements Client for the Gmail API.
type GmailClient struct {
	service *gmail.Service
	userID  string
	config  *GmailConfig
	ctx     context.Context
}

// GmailConfig holds Gmail API configuration.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
	UserEmail    string

	MaxResults     int64
	RequestTimeout time.Duration
	RateLimitDelay time.Duration
}

// NewGmailClient creates a Gmail API client and verifies the connection.
func NewGmailClient(config *GmailConfig) (*GmailClient, error) {
	ctx := context.Background()

	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
	}
	httpClient := oauthConfig.Client(ctx, token)

	service, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	userID := "me"
	if config.UserEmail != "" {
		userID = config.UserEmail
	}

	client := &GmailClient{
		service: service,
		userID:  userID,
		config:  config,
		ctx:     ctx,
	}
	if err := client.HealthCheck(); err != nil {
		return nil, fmt.Errorf("Gmail client health check failed: %w", err)
	}
	return client, nil
}

// Search performs a Gmail search query. Results are returned oldest first:
// the resolver's first-write-wins rule assumes confirmation emails are
// processed before their shipping and delivery follow-ups.
func (g *GmailClient) Search(query string) ([]Message, error) {
	log.Printf("Searching Gmail with query: %s", query)

	time.Sleep(g.config.RateLimitDelay)

	req := g.service.Users.Messages.List(g.userID).Q(query)
	if g.config.MaxResults > 0 {
		req = req.MaxResults(g.config.MaxResults)
	}
	resp, err := req.Do()
	if err != nil {
		return nil, fmt.Errorf("Gmail search failed: %w", err)
	}

	log.Printf("Found %d messages", len(resp.Messages))

	var messages []Message
	for _, msg := range resp.Messages {
		time.Sleep(g.config.RateLimitDelay)

		fullMessage, err := g.GetMessage(msg.Id)
		if err != nil {
			log.Printf("Failed to get message %s: %v", msg.Id, err)
			continue
		}
		messages = append(messages, *fullMessage)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Date.Before(messages[j].Date)
	})
	return messages, nil
}

// GetMessage retrieves the full content of a specific message.
func (g *GmailClient) GetMessage(id string) (*Message, error) {
	msg, err := g.service.Users.Messages.Get(g.userID, id).Format("full").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return g.parseGmailMessage(msg)
}

func (g *GmailClient) parseGmailMessage(msg *gmail.Message) (*Message, error) {
	m := &Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Headers:  make(map[string]string),
		Labels:   msg.LabelIds,
	}

	for _, header := range msg.Payload.Headers {
		m.Headers[header.Name] = header.Value

		switch strings.ToLower(header.Name) {
		case "from":
			m.From = header.Value
		case "subject":
			m.Subject = header.Value
		case "date":
			if date, err := mail.ParseDate(header.Value); err == nil {
				m.Date = date
			}
		}
	}
	if m.Date.IsZero() && msg.InternalDate > 0 {
		m.Date = time.UnixMilli(msg.InternalDate).UTC()
	}

	plainText, htmlText := g.extractContent(msg.Payload)
	m.PlainText = plainText
	m.HTMLText = htmlText
	return m, nil
}

// extractContent extracts plain text and HTML content from the payload.
func (g *GmailClient) extractContent(payload *gmail.MessagePart) (plainText, htmlText string) {
	if payload.MimeType == "text/plain" && payload.Body.Data != "" {
		if decoded, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			plainText = string(decoded)
		}
	} else if payload.MimeType == "text/html" && payload.Body.Data != "" {
		if decoded, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			htmlText = string(decoded)
		}
	}

	for _, part := range payload.Parts {
		partPlain, partHTML := g.extractContent(part)
		if partPlain != "" && plainText == "" {
			plainText = partPlain
		}
		if partHTML != "" && htmlText == "" {
			htmlText = partHTML
		}
	}

	if plainText == "" && htmlText != "" {
		plainText = htmlToText(htmlText)
	}
	return plainText, htmlText
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// htmlToText strips tags and common entities; enough for keyword and regex
// extraction, not a faithful renderer.
func htmlToText(html string) string {
	text := htmlTagRe.ReplaceAllString(html, " ")

	replacements := [][2]string{
		{"&amp;", "&"}, {"&lt;", "<"}, {"&gt;", ">"},
		{"&quot;", `"`}, {"&#39;", "'"}, {"&nbsp;", " "},
	}
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r[0], r[1])
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// HealthCheck verifies the Gmail connection is working.
func (g *GmailClient) HealthCheck() error {
	profile, err := g.service.Users.GetProfile(g.userID).Do()
	if err != nil {
		return fmt.Errorf("failed to get Gmail profile: %w", err)
	}
	log.Printf("Connected to Gmail account: %s", profile.EmailAddress)
	return nil
}

// Close cleans up resources.
func (g *GmailClient) Close() error {
	return nil
}

// BuildSearchQuery constructs the Gmail query for a purchase scan. The
// filter component does the real relevance work; the query just narrows the
// candidate set to retail-looking mail in the scan window.
func BuildSearchQuery(afterDays int, unreadOnly bool, customQuery string) string {
	if customQuery != "" {
		return customQuery
	}

	var parts []string
	parts = append(parts, `subject:(order OR receipt OR shipped OR delivered OR delivery OR tracking OR confirmation OR return)`)

	if afterDays > 0 {
		afterDate := time.Now().AddDate(0, 0, -afterDays).Format("2006/1/2")
		parts = append(parts, fmt.Sprintf("after:%s", afterDate))
	}
	if unreadOnly {
		parts = append(parts, "is:unread")
	}
	return strings.Join(parts, " ")
}

// SearchWithDefaults performs a search with the standard purchase query.
func (g *GmailClient) SearchWithDefaults(afterDays int, unreadOnly bool) ([]Message, error) {
	return g.Search(BuildSearchQuery(afterDays, unreadOnly, ""))
}
