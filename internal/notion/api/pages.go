package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kairyu/notionctl/internal/notion/property"
	"github.com/kairyu/notionctl/internal/notion/types"
)

type parentObject struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	BlockID    string `json:"block_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"`
}

func (p parentObject) ref() types.ParentRef {
	switch p.Type {
	case "database_id":
		return types.ParentRef{Type: "database", ID: p.DatabaseID}
	case "page_id":
		return types.ParentRef{Type: "page", ID: p.PageID}
	case "block_id":
		return types.ParentRef{Type: "block", ID: p.BlockID}
	case "workspace":
		return types.ParentRef{Type: "workspace"}
	default:
		return types.ParentRef{Type: p.Type}
	}
}

type pageResponse struct {
	ID             string                    `json:"id"`
	URL            string                    `json:"url"`
	Archived       bool                      `json:"archived"`
	CreatedTime    string                    `json:"created_time"`
	LastEditedTime string                    `json:"last_edited_time"`
	Parent         parentObject              `json:"parent"`
	Properties     map[string]property.Value `json:"properties"`
}

func (r pageResponse) detail() types.PageDetail {
	return types.PageDetail{
		ID:             r.ID,
		URL:            r.URL,
		Title:          property.ExtractTitle(r.Properties),
		Parent:         r.Parent.ref(),
		Archived:       r.Archived,
		CreatedTime:    r.CreatedTime,
		LastEditedTime: r.LastEditedTime,
		Properties:     property.FlattenAll(r.Properties),
	}
}

// GetPage retrieves a page with flattened properties.
func (c *Client) GetPage(ctx context.Context, id string) (*types.PageDetail, error) {
	var resp pageResponse
	if err := c.do(ctx, http.MethodGet, "/pages/"+normalizeID(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	detail := resp.detail()
	return &detail, nil
}

// CreatePage creates a page under a page or database parent. The two
// parent kinds need structurally different payloads, so the parent is
// probed first: a database parent names the page through its schema's
// title column (conventionally "Name"), a plain page parent through the
// bare title property.
func (c *Client) CreatePage(ctx context.Context, params types.CreatePageParams) (*types.PageDetail, error) {
	if params.ParentID == "" {
		return nil, fmt.Errorf("create page: %w: missing parent id", types.ErrInvalidInput)
	}

	payload := map[string]any{}
	properties := map[string]any{}

	if c.IsDatabase(ctx, params.ParentID) {
		payload["parent"] = map[string]any{"database_id": normalizeID(params.ParentID)}
		titleColumn := c.titleColumn(ctx, params.ParentID)
		properties[titleColumn] = map[string]any{"title": textPayload(params.Title)}
	} else {
		payload["parent"] = map[string]any{"page_id": normalizeID(params.ParentID)}
		properties["title"] = map[string]any{"title": textPayload(params.Title)}
	}

	for name, value := range property.BuildAll(params.Properties) {
		properties[name] = value
	}
	payload["properties"] = properties

	var resp pageResponse
	if err := c.do(ctx, http.MethodPost, "/pages", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	detail := resp.detail()
	return &detail, nil
}

// titleColumn resolves the database's title column name, falling back to
// the conventional "Name" when the schema cannot be read.
func (c *Client) titleColumn(ctx context.Context, databaseID string) string {
	schema, err := c.GetDatabaseSchema(ctx, databaseID)
	if err != nil {
		return "Name"
	}
	for name, prop := range schema {
		if prop.Type == "title" {
			return name
		}
	}
	return "Name"
}

// UpdatePage patches page properties using the heuristic value coercion.
func (c *Client) UpdatePage(ctx context.Context, id string, properties map[string]any) (*types.PageDetail, error) {
	payload := map[string]any{"properties": property.BuildAll(properties)}

	var resp pageResponse
	if err := c.do(ctx, http.MethodPatch, "/pages/"+normalizeID(id), payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}
	detail := resp.detail()
	return &detail, nil
}

// ArchivePage marks a page archived; the API has no hard delete.
func (c *Client) ArchivePage(ctx context.Context, id string) error {
	payload := map[string]any{"archived": true}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+normalizeID(id), payload, nil); err != nil {
		return fmt.Errorf("failed to archive page: %w", err)
	}
	return nil
}
