// Package weather fetches current conditions from the OpenWeather API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/httpkit"
)

// cacheSize bounds the number of cities kept.
const cacheSize = 64

// Report is the current weather for one city.
type Report struct {
	City        string    `json:"city"`
	Temp        float64   `json:"temp"`
	Description string    `json:"description"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// APIError is a failure reported by the service itself, such as an
// unknown city or a rejected key. Message is the service's own text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openweather: %s (HTTP %d)", e.Message, e.StatusCode)
}

// Config holds client settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Units    string
	CacheTTL time.Duration
}

// Client queries OpenWeather, caching reports per city for CacheTTL.
type Client struct {
	cfg    Config
	http   *http.Client
	cache  *expirable.LRU[string, *Report]
	logger *slog.Logger
}

// New creates a client. A zero CacheTTL disables caching.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	c := &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
	if cfg.CacheTTL > 0 {
		c.cache = expirable.NewLRU[string, *Report](cacheSize, nil, cfg.CacheTTL)
	}
	return c
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current returns the conditions in city.
func (c *Client) Current(ctx context.Context, city string) (*Report, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if c.cache != nil {
		if r, ok := c.cache.Get(key); ok {
			c.logger.Debug("weather cache hit", "city", key)
			return r, nil
		}
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.cfg.APIKey)
	if c.cfg.Units != "" {
		q.Set("units", c.cfg.Units)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/weather?" + q.Encode()

	var resp currentResponse
	if err := httpkit.GetJSON(ctx, c.http, endpoint, &resp); err != nil {
		var se *httpkit.StatusError
		if errors.As(err, &se) {
			return nil, apiError(se)
		}
		return nil, fmt.Errorf("fetch weather for %s: %w", city, err)
	}

	r := &Report{
		City:      resp.Name,
		Temp:      resp.Main.Temp,
		Humidity:  resp.Main.Humidity,
		WindSpeed: resp.Wind.Speed,
		FetchedAt: time.Now(),
	}
	if len(resp.Weather) > 0 {
		r.Description = resp.Weather[0].Description
	}
	if r.City == "" {
		r.City = city
	}

	if c.cache != nil {
		c.cache.Add(key, r)
	}
	return r, nil
}

// apiError extracts the service's message from an error response.
func apiError(se *httpkit.StatusError) *APIError {
	var body struct {
		Message string `json:"message"`
	}
	msg := "Unknown error"
	if err := json.Unmarshal([]byte(se.Body), &body); err == nil && body.Message != "" {
		msg = body.Message
	}
	return &APIError{StatusCode: se.StatusCode, Message: msg}
}
