// Package wiki looks up short encyclopedia summaries from a MediaWiki
// site (Wikipedia by default).
package wiki

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/httpkit"
)

var (
	// ErrNotFound means the search returned no article.
	ErrNotFound = errors.New("no matching article")

	// ErrAmbiguous means the best match is a disambiguation page.
	ErrAmbiguous = errors.New("query is ambiguous")
)

// Client queries the MediaWiki action API and REST summary endpoint.
type Client struct {
	baseURL   string
	sentences int
	http      *http.Client
	logger    *slog.Logger
}

// New creates a client for the site at baseURL (e.g.
// https://en.wikipedia.org). Summaries are cut to sentences sentences.
func New(baseURL string, sentences int, httpClient *http.Client, logger *slog.Logger) *Client {
	if sentences <= 0 {
		sentences = 2
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sentences: sentences,
		http:      httpClient,
		logger:    logger,
	}
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ExtractHTML string `json:"extract_html"`
}

// Summary returns the opening sentences of the article best matching
// query.
func (c *Client) Summary(ctx context.Context, query string) (string, error) {
	title, err := c.search(ctx, query)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	var page summaryResponse
	if err := httpkit.GetJSON(ctx, c.http, endpoint, &page); err != nil {
		var se *httpkit.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("summary of %q: %w", title, err)
	}

	if page.Type == "disambiguation" {
		return "", ErrAmbiguous
	}

	text := page.Extract
	if strings.TrimSpace(text) == "" {
		text = htmlToText(page.ExtractHTML)
	}
	text = FirstSentences(text, c.sentences)
	if text == "" {
		return "", ErrNotFound
	}

	c.logger.Debug("encyclopedia summary", "query", query, "title", title, "chars", len(text))
	return text, nil
}

func (c *Client) search(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", "1")
	q.Set("format", "json")

	var resp searchResponse
	if err := httpkit.GetJSON(ctx, c.http, c.baseURL+"/w/api.php?"+q.Encode(), &resp); err != nil {
		return "", fmt.Errorf("search %q: %w", query, err)
	}
	if len(resp.Query.Search) == 0 {
		return "", ErrNotFound
	}
	return resp.Query.Search[0].Title, nil
}
