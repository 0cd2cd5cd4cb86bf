// Package cli implements the shopq command line client: API access,
// configuration, and output formatting.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/workers"
)

// Client represents an HTTP client for the order tracking API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 30*time.Second)
}

// NewClientWithTimeout creates a new API client with a custom timeout
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError represents an error from the API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// ScanStatus mirrors the scan status endpoint response.
type ScanStatus struct {
	Running bool                    `json:"running"`
	Paused  bool                    `json:"paused"`
	Metrics workers.MetricsSnapshot `json:"metrics"`
}

// doRequest performs an HTTP request and handles errors
func (c *Client) doRequest(method, path string, body interface{}) (*http.Response, error) {
	reqURL := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := &APIError{
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return nil, apiErr
	}

	return resp, nil
}

func decodeInto[T any](resp *http.Response) (T, error) {
	var v T
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode response: %w", err)
	}
	return v, nil
}

// HealthCheck checks if the API server is healthy
func (c *Client) HealthCheck() error {
	resp, err := c.doRequest("GET", "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// GetOrders returns the visible (active, non-stale) orders.
func (c *Client) GetOrders() ([]orders.Order, error) {
	resp, err := c.doRequest("GET", "/api/orders", nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]orders.Order](resp)
}

// GetAllOrders returns every purchase except dismissed duplicates.
func (c *Client) GetAllOrders() ([]orders.Order, error) {
	resp, err := c.doRequest("GET", "/api/orders/all", nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]orders.Order](resp)
}

// GetReturnedOrders returns the returns history.
func (c *Client) GetReturnedOrders() ([]orders.Order, error) {
	resp, err := c.doRequest("GET", "/api/orders/returned", nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]orders.Order](resp)
}

// GetOrder returns a specific order by its key.
func (c *Client) GetOrder(key string) (*orders.Order, error) {
	resp, err := c.doRequest("GET", "/api/orders/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}
	o, err := decodeInto[orders.Order](resp)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus marks an order returned, cancelled, dismissed, or
// active again.
func (c *Client) UpdateOrderStatus(key string, status orders.OrderStatus) (*orders.Order, error) {
	body := map[string]orders.OrderStatus{"status": status}
	resp, err := c.doRequest("PATCH", "/api/orders/"+url.PathEscape(key)+"/status", body)
	if err != nil {
		return nil, err
	}
	o, err := decodeInto[orders.Order](resp)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetReturnWatch returns the return watch buckets.
func (c *Client) GetReturnWatch() (*lifecycle.ReturnWatch, error) {
	resp, err := c.doRequest("GET", "/api/return-watch", nil)
	if err != nil {
		return nil, err
	}
	w, err := decodeInto[lifecycle.ReturnWatch](resp)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetEmails returns the most recent email processing records.
func (c *Client) GetEmails(limit int) ([]orders.OrderEmail, error) {
	path := "/api/emails"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]orders.OrderEmail](resp)
}

// GetScanStatus returns the scanner state and metrics.
func (c *Client) GetScanStatus() (*ScanStatus, error) {
	return c.scanRequest("GET", "/api/scan/status")
}

// RunScan triggers a scan and waits for it to finish. Forced runs bypass
// the manual-scan rate limit.
func (c *Client) RunScan(force bool) (*ScanStatus, error) {
	path := "/api/scan/run"
	if force {
		path += "?force=true"
	}
	return c.scanRequest("POST", path)
}

// PauseScan pauses the background scanner.
func (c *Client) PauseScan() (*ScanStatus, error) {
	return c.scanRequest("POST", "/api/scan/pause")
}

// ResumeScan resumes the background scanner.
func (c *Client) ResumeScan() (*ScanStatus, error) {
	return c.scanRequest("POST", "/api/scan/resume")
}

func (c *Client) scanRequest(method, path string) (*ScanStatus, error) {
	resp, err := c.doRequest(method, path, nil)
	if err != nil {
		return nil, err
	}
	s, err := decodeInto[ScanStatus](resp)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
