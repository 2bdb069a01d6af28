package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kairyu/notionctl/internal/notion/types"
)

type commentResponse struct {
	ID           string     `json:"id"`
	DiscussionID string     `json:"discussion_id"`
	RichText     []richText `json:"rich_text"`
	CreatedTime  string     `json:"created_time"`
	CreatedBy    struct {
		ID string `json:"id"`
	} `json:"created_by"`
}

func (r commentResponse) comment() types.Comment {
	return types.Comment{
		ID:           r.ID,
		DiscussionID: r.DiscussionID,
		Author:       r.CreatedBy.ID,
		Text:         joinRichText(r.RichText),
		CreatedTime:  r.CreatedTime,
	}
}

type commentListResponse struct {
	Results    []commentResponse `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// ListComments retrieves open comments attached to a block or page.
func (c *Client) ListComments(ctx context.Context, blockID string, opts *types.PageOptions) (*types.Paginated[types.Comment], error) {
	pageSize, cursor := pageParams(opts)
	path := "/comments" + listQuery(pageSize, cursor, "block_id="+normalizeID(blockID))

	var resp commentListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]types.Comment, 0, len(resp.Results))
	for _, r := range resp.Results {
		comments = append(comments, r.comment())
	}
	return &types.Paginated[types.Comment]{
		Items:      comments,
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}, nil
}

type addCommentRequest struct {
	Parent   map[string]string `json:"parent"`
	RichText []map[string]any  `json:"rich_text"`
}

// AddComment creates a page-level comment.
func (c *Client) AddComment(ctx context.Context, pageID, text string) (*types.Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is empty", types.ErrInvalidInput)
	}
	req := addCommentRequest{
		Parent:   map[string]string{"page_id": normalizeID(pageID)},
		RichText: textPayload(text),
	}

	var resp commentResponse
	if err := c.do(ctx, http.MethodPost, "/comments", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	comment := resp.comment()
	return &comment, nil
}

// AddInlineComment anchors a comment to text inside a block, which the
// official API cannot express.
func (c *Client) AddInlineComment(ctx context.Context, params types.InlineCommentParams) (*types.Comment, error) {
	return nil, types.NotSupportedf("add inline comment", backendName)
}
