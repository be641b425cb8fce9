package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL = "http://api.weatherapi.com/v1"
	forecastDays   = 7
	cacheSize      = 256
	cacheTTL       = time.Hour
)

var (
	// ErrUnavailable is returned when the forecast provider rejects the lookup.
	ErrUnavailable = errors.New("weather API error")
	// ErrBadForecast is returned when the provider answers with an unexpected body.
	ErrBadForecast = errors.New("failed to parse weather data")
)

// Client fetches weekly forecasts from weatherapi.com.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, float64]
	group      singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a new weather Client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      expirable.NewLRU[string, float64](cacheSize, nil, cacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type forecastResponse struct {
	Forecast *struct {
		ForecastDay []struct {
			Day *struct {
				AvgTempC *float64 `json:"avgtemp_c"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// AverageTemperature returns the mean of the daily average temperatures
// (Celsius) over the next seven days for city.
func (c *Client) AverageTemperature(ctx context.Context, city string) (float64, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return 0, fmt.Errorf("%w: empty city", ErrUnavailable)
	}
	if avg, ok := c.cache.Get(key); ok {
		return avg, nil
	}

	// The shared fetch outlives any single caller; each caller only stops
	// waiting when its own ctx ends. The HTTP client timeout bounds the fetch.
	ch := c.group.DoChan(key, func() (any, error) {
		avg, err := c.fetch(context.WithoutCancel(ctx), city)
		if err != nil {
			return 0.0, err
		}
		c.cache.Add(key, avg)
		log.Printf("Average Temperature for %s: %.1f°C", city, avg)
		return avg, nil
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

func (c *Client) fetch(ctx context.Context, city string) (float64, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", city)
	q.Set("days", fmt.Sprint(forecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: status=%d body=%s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadForecast, err)
	}
	if fr.Forecast == nil || len(fr.Forecast.ForecastDay) == 0 {
		return 0, fmt.Errorf("%w: no forecast days", ErrBadForecast)
	}

	var sum float64
	for _, day := range fr.Forecast.ForecastDay {
		if day.Day == nil || day.Day.AvgTempC == nil {
			return 0, fmt.Errorf("%w: missing avgtemp_c", ErrBadForecast)
		}
		sum += *day.Day.AvgTempC
	}
	return sum / float64(len(fr.Forecast.ForecastDay)), nil
}
