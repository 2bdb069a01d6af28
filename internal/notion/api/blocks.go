package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kairyu/notionctl/internal/notion/collect"
	"github.com/kairyu/notionctl/internal/notion/types"
)

type blockHeader struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

type urlObject struct {
	URL string `json:"url"`
}

type blockPayload struct {
	RichText   []richText `json:"rich_text"`
	Checked    *bool      `json:"checked"`
	Language   string     `json:"language"`
	URL        string     `json:"url"`
	External   *urlObject `json:"external"`
	File       *urlObject `json:"file"`
	Caption    []richText `json:"caption"`
	Expression string     `json:"expression"`
	Title      string     `json:"title"`
	Name       string     `json:"name"`
	Icon       *struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	} `json:"icon"`
}

func (p blockPayload) sourceURL() string {
	if p.File != nil && p.File.URL != "" {
		return p.File.URL
	}
	if p.External != nil && p.External.URL != "" {
		return p.External.URL
	}
	return p.URL
}

// normalizeBlock projects one raw block object into the canonical
// shape. The payload lives under a key named after the block type, so
// decoding happens in two passes: header first, then the keyed payload.
func normalizeBlock(raw json.RawMessage) (types.NormalizedBlock, error) {
	var hdr blockHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return types.NormalizedBlock{}, fmt.Errorf("failed to decode block: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return types.NormalizedBlock{}, fmt.Errorf("failed to decode block fields: %w", err)
	}

	var payload blockPayload
	if rawPayload, ok := fields[hdr.Type]; ok {
		// A payload that fails to decode is treated as empty rather than
		// failing the whole listing.
		_ = json.Unmarshal(rawPayload, &payload)
	}

	nb := types.NormalizedBlock{
		ID:          hdr.ID,
		Type:        hdr.Type,
		RichText:    joinRichText(payload.RichText),
		HasChildren: hdr.HasChildren,
	}

	switch hdr.Type {
	case types.BlockToDo:
		checked := payload.Checked != nil && *payload.Checked
		nb.Checked = &checked
	case types.BlockCode:
		nb.Language = payload.Language
	case types.BlockCallout:
		if payload.Icon != nil && payload.Icon.Type == "emoji" {
			nb.Emoji = payload.Icon.Emoji
		}
	case types.BlockImage, types.BlockEmbed, types.BlockVideo, types.BlockPDF,
		types.BlockAudio, types.BlockBookmark, types.BlockLinkPreview:
		nb.URL = payload.sourceURL()
		nb.Caption = joinRichText(payload.Caption)
	case types.BlockFile:
		nb.URL = payload.sourceURL()
		nb.Caption = joinRichText(payload.Caption)
		nb.Title = payload.Name
	case types.BlockEquation:
		nb.Expression = payload.Expression
		nb.RichText = ""
	case types.BlockChildPage, types.BlockChildDatabase:
		nb.Title = payload.Title
		nb.RichText = ""
	}
	return nb, nil
}

type blockListResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// ListBlocks retrieves one page of a block's children.
func (c *Client) ListBlocks(ctx context.Context, blockID string, opts *types.PageOptions) (*types.Paginated[types.NormalizedBlock], error) {
	pageSize, cursor := pageParams(opts)
	path := "/blocks/" + normalizeID(blockID) + "/children" + listQuery(pageSize, cursor)

	var resp blockListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}

	blocks := make([]types.NormalizedBlock, 0, len(resp.Results))
	for _, raw := range resp.Results {
		nb, err := normalizeBlock(raw)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, nb)
	}
	return &types.Paginated[types.NormalizedBlock]{
		Items:      blocks,
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}, nil
}

// GetAllBlocks collects a block's full child list under the truncation
// cap.
func (c *Client) GetAllBlocks(ctx context.Context, blockID string) (*types.BlockCollection, error) {
	return collect.AllBlocks(ctx, c, blockID)
}

// GetChildBlocks collects full child lists for several blocks with
// bounded concurrency.
func (c *Client) GetChildBlocks(ctx context.Context, ids []string) (map[string]*types.BlockCollection, error) {
	return collect.ChildBlocks(ctx, c, ids)
}

// AppendBlocks appends block-creation objects to a parent block.
func (c *Client) AppendBlocks(ctx context.Context, blockID string, blocks []types.BlockInput) error {
	if len(blocks) == 0 {
		return fmt.Errorf("append blocks: %w: no blocks", types.ErrInvalidInput)
	}
	payload := map[string]any{"children": blocks}
	if err := c.do(ctx, http.MethodPatch, "/blocks/"+normalizeID(blockID)+"/children", payload, nil); err != nil {
		return fmt.Errorf("failed to append blocks: %w", err)
	}
	return nil
}

func pageParams(opts *types.PageOptions) (int, string) {
	if opts == nil {
		return 0, ""
	}
	return opts.Limit, opts.Cursor
}
