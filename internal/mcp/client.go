package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the HTTP client for the bot's admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new admin API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CommandResult is the outcome of a mutation, as the bot replied to it
type CommandResult struct {
	Command string `json:"command"`
	Reply   string `json:"reply"`
	Changed bool   `json:"changed"`
}

// Health returns the name of the bot behind the API
func (c *Client) Health(ctx context.Context) (string, error) {
	var result struct {
		Bot string `json:"bot"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return "", err
	}
	return result.Bot, nil
}

// ============ Terms ============

// Terms lists the watched terms in order
func (c *Client) Terms(ctx context.Context) ([]string, error) {
	var result struct {
		Terms []string `json:"terms"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/terms", nil, &result); err != nil {
		return nil, err
	}
	return result.Terms, nil
}

// AddTerm adds a watched term
func (c *Client) AddTerm(ctx context.Context, term string) (*CommandResult, error) {
	var result CommandResult
	body := map[string]string{"term": term}
	if err := c.do(ctx, http.MethodPost, "/api/terms", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveTerm removes a watched term
func (c *Client) RemoveTerm(ctx context.Context, term string) (*CommandResult, error) {
	var result CommandResult
	if err := c.do(ctx, http.MethodDelete, "/api/terms/"+url.PathEscape(term), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ============ Chance ============

// Chance returns the repost/follow chance in percent
func (c *Client) Chance(ctx context.Context) (int, error) {
	var result struct {
		Chance int `json:"chance"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chance", nil, &result); err != nil {
		return 0, err
	}
	return result.Chance, nil
}

// SetChance sets the repost/follow chance in percent
func (c *Client) SetChance(ctx context.Context, chance int) (*CommandResult, error) {
	var result CommandResult
	body := map[string]int{"chance": chance}
	if err := c.do(ctx, http.MethodPut, "/api/chance", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ============ Alarms / Matcher ============

// Alarms returns pending alarms: "HH:MM" -> message id -> requester
func (c *Client) Alarms(ctx context.Context) (map[string]map[string]string, error) {
	var result struct {
		Alarms map[string]map[string]string `json:"alarms"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/alarms", nil, &result); err != nil {
		return nil, err
	}
	return result.Alarms, nil
}

// Pattern returns the compiled term pattern
func (c *Client) Pattern(ctx context.Context) (string, error) {
	var result struct {
		Pattern string `json:"pattern"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/matcher", nil, &result); err != nil {
		return "", err
	}
	return result.Pattern, nil
}

// ============ HTTP Helpers ============

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
