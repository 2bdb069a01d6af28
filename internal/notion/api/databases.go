package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kairyu/notionctl/internal/notion/property"
	"github.com/kairyu/notionctl/internal/notion/types"
)

type searchRequest struct {
	Query       string        `json:"query,omitempty"`
	Filter      *searchFilter `json:"filter,omitempty"`
	StartCursor string        `json:"start_cursor,omitempty"`
	PageSize    int           `json:"page_size,omitempty"`
}

type searchFilter struct {
	Value    string `json:"value"`
	Property string `json:"property"`
}

type searchHit struct {
	Object     string                    `json:"object"`
	ID         string                    `json:"id"`
	URL        string                    `json:"url"`
	Title      []richText                `json:"title"`
	Properties map[string]property.Value `json:"properties"`
}

func (h searchHit) title() string {
	if h.Object == "database" {
		return joinRichText(h.Title)
	}
	return property.ExtractTitle(h.Properties)
}

type searchResponse struct {
	Results    []searchHit `json:"results"`
	HasMore    bool        `json:"has_more"`
	NextCursor string      `json:"next_cursor"`
}

// Search queries pages and databases by title.
func (c *Client) Search(ctx context.Context, query string, opts *types.PageOptions) (*types.Paginated[types.SearchResult], error) {
	pageSize, cursor := pageParams(opts)
	req := searchRequest{Query: query, PageSize: pageSize, StartCursor: cursor}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]types.SearchResult, 0, len(resp.Results))
	for _, hit := range resp.Results {
		results = append(results, types.SearchResult{
			ID:     hit.ID,
			Object: hit.Object,
			Title:  hit.title(),
			URL:    hit.URL,
		})
	}
	return &types.Paginated[types.SearchResult]{
		Items:      results,
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}, nil
}

// ListDatabases searches with an object filter of database.
func (c *Client) ListDatabases(ctx context.Context, opts *types.PageOptions) (*types.Paginated[types.DatabaseSummary], error) {
	pageSize, cursor := pageParams(opts)
	req := searchRequest{
		Filter:      &searchFilter{Value: "database", Property: "object"},
		PageSize:    pageSize,
		StartCursor: cursor,
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	dbs := make([]types.DatabaseSummary, 0, len(resp.Results))
	for _, hit := range resp.Results {
		dbs = append(dbs, types.DatabaseSummary{ID: hit.ID, Title: hit.title(), URL: hit.URL})
	}
	return &types.Paginated[types.DatabaseSummary]{
		Items:      dbs,
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}, nil
}

type databaseResponse struct {
	ID         string                         `json:"id"`
	URL        string                         `json:"url"`
	Title      []richText                     `json:"title"`
	Properties map[string]property.Definition `json:"properties"`
}

func (c *Client) getDatabase(ctx context.Context, id string) (*databaseResponse, error) {
	var resp databaseResponse
	if err := c.do(ctx, http.MethodGet, "/databases/"+normalizeID(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDatabase retrieves a database summary.
func (c *Client) GetDatabase(ctx context.Context, id string) (*types.DatabaseSummary, error) {
	resp, err := c.getDatabase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	return &types.DatabaseSummary{ID: resp.ID, Title: joinRichText(resp.Title), URL: resp.URL}, nil
}

// GetDatabaseSchema retrieves the flattened column definitions.
func (c *Client) GetDatabaseSchema(ctx context.Context, id string) (types.DatabaseSchema, error) {
	resp, err := c.getDatabase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get database schema: %w", err)
	}
	return property.FlattenSchema(resp.Properties), nil
}

type queryResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// QueryDatabase runs a filter query; the filter travels in the API's
// own vocabulary, built by the caller from the flattened schema.
func (c *Client) QueryDatabase(ctx context.Context, id string, filter map[string]any, opts *types.PageOptions) (*types.Paginated[types.PageDetail], error) {
	pageSize, cursor := pageParams(opts)
	payload := map[string]any{}
	if len(filter) > 0 {
		payload["filter"] = filter
	}
	if pageSize > 0 {
		payload["page_size"] = pageSize
	}
	if cursor != "" {
		payload["start_cursor"] = cursor
	}

	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/databases/"+normalizeID(id)+"/query", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}

	pages := make([]types.PageDetail, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var page pageResponse
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("failed to decode page result: %w", err)
		}
		pages = append(pages, page.detail())
	}
	return &types.Paginated[types.PageDetail]{
		Items:      pages,
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}, nil
}

// IsDatabase probes the id with a database retrieval. Any failure means
// "not a database": true type mismatch, not-found, and permission
// errors are indistinguishable here because the host API has no cheap
// type-check endpoint.
func (c *Client) IsDatabase(ctx context.Context, id string) bool {
	_, err := c.getDatabase(ctx, id)
	return err == nil
}
