package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kairyu/notionctl/internal/notion/types"
)

type userResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Person struct {
		Email string `json:"email"`
	} `json:"person"`
}

func (r userResponse) user() types.User {
	return types.User{ID: r.ID, Name: r.Name, Email: r.Person.Email, Type: r.Type}
}

type userListResponse struct {
	Results    []userResponse `json:"results"`
	HasMore    bool           `json:"has_more"`
	NextCursor string         `json:"next_cursor"`
}

// ListUsers retrieves the workspace members visible to the integration.
func (c *Client) ListUsers(ctx context.Context, opts *types.PageOptions) (*types.Paginated[types.User], error) {
	pageSize, cursor := pageParams(opts)
	path := "/users" + listQuery(pageSize, cursor)

	var resp userListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]types.User, 0, len(resp.Results))
	for _, r := range resp.Results {
		users = append(users, r.user())
	}
	return &types.Paginated[types.User]{
		Items:      users,
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}, nil
}

// GetMe retrieves the bot user behind the current token.
func (c *Client) GetMe(ctx context.Context) (*types.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	user := resp.user()
	return &user, nil
}
