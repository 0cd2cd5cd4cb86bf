package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/extract"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// Config holds configuration for LLM-backed policy extraction.
type Config struct {
	Provider    string        `json:"provider"` // "ollama" or "disabled"
	Model       string        `json:"model"`
	Endpoint    string        `json:"endpoint"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
	Enabled     bool          `json:"enabled"`
}

// DefaultConfig returns a disabled configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:    "disabled",
		MaxTokens:   500,
		Temperature: 0.1,
		Timeout:     120 * time.Second,
		Enabled:     false,
	}
}

// OllamaExtractor asks a local Ollama instance for return-policy terms.
type OllamaExtractor struct {
	config     *Config
	httpClient *http.Client
	limiter    *RateLimiter
	cache      *Cache
	refDate    func() time.Time
}

// NewOllamaExtractor creates an extractor with rate limiting and a
// per-merchant response cache.
func NewOllamaExtractor(config *Config) *OllamaExtractor {
	return &OllamaExtractor{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    DefaultRateLimiter(),
		cache:      NewCache(24 * time.Hour),
		refDate:    time.Now,
	}
}

func (o *OllamaExtractor) IsEnabled() bool {
	return o.config.Enabled && o.config.Provider == "ollama"
}

// HealthCheck verifies the Ollama endpoint responds.
func (o *OllamaExtractor) HealthCheck() error {
	if !o.IsEnabled() {
		return nil
	}
	resp, err := o.httpClient.Get(strings.TrimSuffix(o.config.Endpoint, "/api/generate"))
	if err != nil {
		return fmt.Errorf("ollama health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check: status %d", resp.StatusCode)
	}
	return nil
}

// ExtractPolicy asks the model about the anchor text and validates the
// answer before returning it. Any failure degrades to unknown confidence
// rather than an aborted email.
func (o *OllamaExtractor) ExtractPolicy(ctx context.Context, anchorText, merchantDomain string) (*Result, error) {
	if !o.IsEnabled() {
		return &Result{Confidence: orders.ConfidenceUnknown}, nil
	}
	if cached := o.cache.Get(merchantDomain, anchorText); cached != nil {
		return cached, nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("policy rate limit: %w", err)
	}

	raw, err := o.callOllama(ctx, o.buildPrompt(anchorText, merchantDomain))
	if err != nil {
		return nil, fmt.Errorf("ollama call: %w", err)
	}

	result := Validate(o.parseResponse(raw))
	o.cache.Put(merchantDomain, anchorText, result)
	return result, nil
}

func (o *OllamaExtractor) buildPrompt(anchorText, merchantDomain string) string {
	return fmt.Sprintf(`Extract the return policy from this email text. Return ONLY a JSON response.

Merchant: %s

Email text:
%s

Task: find an explicit return deadline date or a return window in days.

Instructions:
1. Only report values that appear in the text. Do not guess.
2. quote must be the exact sentence the value came from.
3. deadline_date is ISO format (YYYY-MM-DD); window_days is an integer.
4. confidence is "exact" for a stated deadline date, "estimated" for a window, "unknown" otherwise.

Return JSON format:
{
  "deadline_date": "2026-03-15",
  "window_days": 30,
  "confidence": "estimated",
  "quote": "exact sentence from the text"
}`, merchantDomain, truncate(anchorText, 1500))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func (o *OllamaExtractor) callOllama(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model":       o.config.Model,
		"prompt":      prompt,
		"stream":      false,
		"temperature": o.config.Temperature,
		"max_tokens":  o.config.MaxTokens,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return body.Response, nil
}

// parseResponse pulls the JSON object out of the model's reply. Models
// sometimes wrap JSON in prose, so scan for the outermost braces.
func (o *OllamaExtractor) parseResponse(raw string) *Result {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return &Result{Confidence: orders.ConfidenceUnknown}
	}

	var payload struct {
		DeadlineDate string `json:"deadline_date"`
		WindowDays   *int   `json:"window_days"`
		Confidence   string `json:"confidence"`
		Quote        string `json:"quote"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return &Result{Confidence: orders.ConfidenceUnknown}
	}

	result := &Result{
		WindowDays: payload.WindowDays,
		Quote:      payload.Quote,
	}
	if payload.DeadlineDate != "" {
		result.DeadlineDate = extract.ParseDate(payload.DeadlineDate, o.refDate())
	}
	switch strings.ToLower(payload.Confidence) {
	case "exact":
		result.Confidence = orders.ConfidenceExact
	case "estimated":
		result.Confidence = orders.ConfidenceEstimated
	default:
		result.Confidence = orders.ConfidenceUnknown
	}
	return result
}
