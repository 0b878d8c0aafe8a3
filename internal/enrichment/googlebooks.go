package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/lepinkainen/bookshelf/internal/ratelimit"
)

// googleBooksResponse mirrors the volumes search reply.
type googleBooksResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			PublishedDate       string   `json:"publishedDate"`
			PageCount           int64    `json:"pageCount"`
			Description         string   `json:"description"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// GoogleBooksClient queries the Google Books volumes API by title and
// author. Requests are rate limited to stay inside the keyless quota.
type GoogleBooksClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// GoogleBooksOption customizes the client.
type GoogleBooksOption func(*GoogleBooksClient)

// WithGoogleBooksHTTPClient overrides the default HTTP client. Used in tests.
func WithGoogleBooksHTTPClient(client *http.Client) GoogleBooksOption {
	return func(c *GoogleBooksClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithGoogleBooksBaseURL overrides the API root. Used in tests.
func WithGoogleBooksBaseURL(baseURL string) GoogleBooksOption {
	return func(c *GoogleBooksClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewGoogleBooksClient builds a client from the application configuration.
func NewGoogleBooksClient(cfg *config.Config, opts ...GoogleBooksOption) *GoogleBooksClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &GoogleBooksClient{
		baseURL:    strings.TrimSuffix(cfg.GoogleBooksBaseURL, "/"),
		apiKey:     cfg.GoogleBooksAPIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    ratelimit.New("GoogleBooks", 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Search queries the volumes API and returns up to limit matches in
// the service's own ranking order.
func (c *GoogleBooksClient) Search(ctx context.Context, title, author string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 1
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := "intitle:" + title
	if author != "" {
		query += " inauthor:" + author
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprint(limit))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned status %d", resp.StatusCode)
	}

	var result googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}

	matches := make([]Match, 0, len(result.Items))
	for _, item := range result.Items {
		info := item.VolumeInfo
		match := Match{
			Title:         info.Title,
			Authors:       info.Authors,
			Publisher:     info.Publisher,
			DatePublished: info.PublishedDate,
			PageCount:     info.PageCount,
			Description:   info.Description,
		}
		// Prefer ISBN-13 over ISBN-10 when both are present.
		for _, identifier := range info.IndustryIdentifiers {
			if identifier.Type == "ISBN_13" {
				match.ISBN = identifier.Identifier
				break
			}
			if identifier.Type == "ISBN_10" && match.ISBN == "" {
				match.ISBN = identifier.Identifier
			}
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Enrich looks the title/author pair up and returns the first match's
// fields. First-match-wins is deliberate policy: the service's own
// ranking is trusted, no local re-ranking. All failures are absorbed
// into an empty result.
func (c *GoogleBooksClient) Enrich(ctx context.Context, title, author string) Fields {
	matches, err := c.Search(ctx, title, author, 1)
	if err != nil {
		slog.Debug("Enrichment lookup failed", "title", title, "author", author, "error", err)
		return Fields{}
	}
	if len(matches) == 0 {
		slog.Debug("No enrichment match", "title", title, "author", author)
		return Fields{}
	}
	return matches[0].Fields()
}
