// Package api implements the capability interface against the public
// REST API. Raw payloads are transformed into canonical types at the
// boundary; nothing upstream ever sees this package's wire shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public REST API root.
	DefaultBaseURL = "https://api.notion.com/v1"

	notionVersion = "2022-06-28"

	backendName = "official"
)

// Client is the official REST API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// NewClient creates a new official API client.
func NewClient(token string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
		logger:     logger,
	}
}

// NewClientWithBaseURL points the client at a different API root, used
// by tests.
func NewClientWithBaseURL(token, baseURL string, logger zerolog.Logger) *Client {
	c := NewClient(token, logger)
	c.baseURL = baseURL
	return c
}

// APIError is an error payload from the public API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// do sends one request and decodes the answer into out (skipped when
// out is nil). Non-2xx answers surface as *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	c.logger.Debug().Str("method", method).Str("path", path).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err != nil {
			return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}
		apiErr.Status = resp.StatusCode
		return &apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", notionVersion)
}

func normalizeID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// listQuery renders pagination parameters for GET endpoints.
func listQuery(pageSize int, cursor string, extra ...string) string {
	params := make([]string, 0, 3+len(extra))
	params = append(params, extra...)
	if pageSize > 0 {
		params = append(params, fmt.Sprintf("page_size=%d", pageSize))
	}
	if cursor != "" {
		// Cursors are opaque and may contain reserved characters.
		params = append(params, "start_cursor="+url.QueryEscape(cursor))
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + strings.Join(params, "&")
}

type richText struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text,omitempty"`
}

func joinRichText(spans []richText) string {
	var sb strings.Builder
	for _, s := range spans {
		if s.PlainText != "" {
			sb.WriteString(s.PlainText)
		} else if s.Text != nil {
			sb.WriteString(s.Text.Content)
		}
	}
	return sb.String()
}

func textPayload(content string) []map[string]any {
	return []map[string]any{
		{"type": "text", "text": map[string]any{"content": content}},
	}
}
