package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"outfit-planner/internal/outfit"

	"golang.org/x/oauth2"
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Detail)
}

// Client talks to the outfit planner HTTP API. It implements the history,
// generation and persistence contracts of planner.Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client that authenticates every request with accessToken.
func NewClient(baseURL, accessToken string) *Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: 60 * time.Second})
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return NewClientWithHTTP(baseURL, oauth2.NewClient(ctx, ts))
}

// NewClientWithHTTP creates a Client on top of an already authenticated HTTP client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchWeek returns the saved outfits for today through today+6.
func (c *Client) FetchWeek(ctx context.Context) ([]outfit.DayPlan, error) {
	var plans []outfit.DayPlan
	if err := c.do(ctx, http.MethodGet, "/outfits/week", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Generate requests a fresh plan. Nothing is persisted server-side.
func (c *Client) Generate(ctx context.Context, req outfit.GenerateRequest) ([]outfit.DayPlan, error) {
	var plans []outfit.DayPlan
	if err := c.do(ctx, http.MethodPost, "/outfits/generate", req, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// SaveWeek persists a complete week.
func (c *Client) SaveWeek(ctx context.Context, entries []outfit.SaveEntry) error {
	return c.do(ctx, http.MethodPost, "/outfits/", entries, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &payload) != nil || payload.Detail == "" {
			payload.Detail = strings.TrimSpace(string(raw))
		}
		return &StatusError{Status: resp.StatusCode, Detail: payload.Detail}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
