// Package vision extracts book metadata from cover photos by sending
// them to a vision-capable chat completions API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/bookshelf/internal/config"
)

// supportedMIMETypes is the allow-list of raster formats accepted for
// extraction. Anything else is rejected before the external call.
var supportedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// DraftFields is the extractor's best-effort guess at the cover's
// metadata. Empty string means the model could not determine the field.
type DraftFields struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	Summary       string `json:"summary"`
	DatePublished string `json:"date_published"`
	Series        string `json:"series"`
}

const extractPrompt = `Analyze this book cover image and extract the book's metadata. Respond ONLY with a valid JSON object:

{
  "title": "full book title including subtitle",
  "author": "author name(s) exactly as shown",
  "genre": "primary genre if identifiable from the cover, otherwise null",
  "summary": "one-paragraph summary of the book if you recognize it, otherwise null",
  "date_published": "publication date as printed or known, best-effort string, otherwise null",
  "series": "series name if the cover indicates one (e.g. 'Book 1', '#2', 'Volume 3'), otherwise null"
}

Use null for any field you cannot determine. Never invent placeholder values.
Return only the raw JSON object, no markdown and no explanations.`

// Client talks to an OpenAI-compatible chat completions endpoint.
// Exactly one call is made per extraction; retrying is left to the user.
type Client struct {
	apiKey        string
	baseURL       string
	model         string
	maxImageBytes int64
	httpClient    *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Used in tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API root. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewClient builds a vision client from the application configuration.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		apiKey:        cfg.OpenAIAPIKey,
		baseURL:       strings.TrimSuffix(cfg.OpenAIBaseURL, "/"),
		model:         cfg.OpenAIModel,
		maxImageBytes: cfg.MaxImageBytes,
		httpClient:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Extract sends the image to the vision model and decodes the reply
// into DraftFields. The payload is validated locally first so a bad
// image never costs an API call.
func (c *Client) Extract(ctx context.Context, imageData []byte, mimeType string) (*DraftFields, error) {
	if !supportedMIMETypes[mimeType] {
		return nil, &Error{Kind: UnsupportedInput, Err: fmt.Errorf("unsupported image format %q", mimeType)}
	}
	if c.maxImageBytes > 0 && int64(len(imageData)) > c.maxImageBytes {
		return nil, &Error{
			Kind: UnsupportedInput,
			Err:  fmt.Errorf("image is %d bytes, limit is %d", len(imageData), c.maxImageBytes),
		}
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: extractPrompt},
					{Type: "image_url", ImageURL: &imageRef{URL: dataURL}},
				},
			},
		},
		MaxTokens:      500,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	content, err := c.complete(ctx, request)
	if err != nil {
		return nil, err
	}

	var fields DraftFields
	if err := decodeModelJSON(content, &fields); err != nil {
		return nil, &Error{Kind: UnparseableResponse, Err: err}
	}
	fields.trim()

	if fields.Title == "" || fields.Author == "" {
		return nil, &Error{
			Kind: MissingRequiredField,
			Err:  fmt.Errorf("title=%q author=%q", fields.Title, fields.Author),
		}
	}

	slog.Debug("Extracted book metadata from cover",
		"title", fields.Title,
		"author", fields.Author,
	)
	return &fields, nil
}

func (f *DraftFields) trim() {
	f.Title = cleanField(f.Title)
	f.Author = cleanField(f.Author)
	f.Genre = cleanField(f.Genre)
	f.Summary = cleanField(f.Summary)
	f.DatePublished = cleanField(f.DatePublished)
	f.Series = cleanField(f.Series)
}

// cleanField normalizes model output: whitespace is trimmed and the
// usual "I don't know" spellings collapse to absent.
func cleanField(value string) string {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "null", "none", "unknown", "n/a":
		return ""
	}
	return value
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete issues a single chat completion request and returns the
// message content of the first choice.
func (c *Client) complete(ctx context.Context, request chatRequest) (string, error) {
	encoded, err := json.Marshal(request)
	if err != nil {
		return "", &Error{Kind: ServiceUnavailable, Err: fmt.Errorf("encode request: %w", err)}
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", &Error{Kind: ServiceUnavailable, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: ServiceUnavailable, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: ServiceUnavailable, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Kind: ServiceUnavailable,
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, summarize(string(body))),
		}
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", &Error{Kind: UnparseableResponse, Err: fmt.Errorf("decode response: %w", err)}
	}
	if completion.Error != nil {
		return "", &Error{Kind: ServiceUnavailable, Err: fmt.Errorf("api error: %s", completion.Error.Message)}
	}
	if len(completion.Choices) == 0 {
		return "", &Error{Kind: UnparseableResponse, Err: fmt.Errorf("empty choices")}
	}

	choice := completion.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", &Error{
			Kind: UnparseableResponse,
			Err: fmt.Errorf("empty content (finish_reason=%q, refusal=%q)",
				choice.FinishReason, choice.Message.Refusal),
		}
	}
	return content, nil
}

// decodeModelJSON decodes JSON from a model reply, tolerating code
// fences and prose wrapped around the object.
func decodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("empty payload")
	}

	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}

	sanitized := stripCodeFence(trimmed)
	if start := strings.Index(sanitized, "{"); start >= 0 {
		if end := strings.LastIndex(sanitized, "}"); end > start {
			sanitized = sanitized[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (payload snippet: %s)", err, summarize(trimmed))
	}
	return nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimPrefix(trimmed, "```")
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarize(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}
