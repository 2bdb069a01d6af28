package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairyu/notionctl/internal/notion/types"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithBaseURL("test-token", server.URL, zerolog.Nop())
}

func TestDoSetsHeaders(t *testing.T) {
	var got http.Header
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	})

	require.NoError(t, client.do(context.Background(), http.MethodGet, "/users/me", nil, nil))
	assert.Equal(t, "Bearer test-token", got.Get("Authorization"))
	assert.Equal(t, notionVersion, got.Get("Notion-Version"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestDoSurfacesAPIError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"object_not_found","message":"Could not find page"}`))
	})

	err := client.do(context.Background(), http.MethodGet, "/pages/x", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "object_not_found", apiErr.Code)
	assert.Equal(t, "Could not find page", apiErr.Message)
}

func TestIsDatabaseProbe(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/databases/realdb" {
			w.Write([]byte(`{"id":"realdb","title":[{"plain_text":"Tasks"}],"properties":{}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"object_not_found","message":"nope"}`))
	})

	assert.True(t, client.IsDatabase(context.Background(), "realdb"))
	// Any failure reads as "not a database", including permission errors.
	assert.False(t, client.IsDatabase(context.Background(), "somepage"))
}

func TestCreatePageUnderDatabase(t *testing.T) {
	var created map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/databases/db1" && r.Method == http.MethodGet:
			w.Write([]byte(`{"id":"db1","title":[],"properties":{
				"Task": {"id":"title","type":"title"},
				"Done": {"id":"dn","type":"checkbox"}
			}}`))
		case r.URL.Path == "/pages" && r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.Write([]byte(`{"id":"new-page","url":"https://n/p","parent":{"type":"database_id","database_id":"db1"},"properties":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{}`))
		}
	})

	page, err := client.CreatePage(context.Background(), types.CreatePageParams{
		ParentID:   "db1",
		Title:      "New task",
		Properties: map[string]any{"Done": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-page", page.ID)
	assert.Equal(t, "database", page.Parent.Type)

	parent := created["parent"].(map[string]any)
	assert.Equal(t, "db1", parent["database_id"])

	props := created["properties"].(map[string]any)
	// The schema's title column names the page, not a bare "title" key.
	require.Contains(t, props, "Task")
	assert.NotContains(t, props, "title")
	assert.Equal(t, map[string]any{"checkbox": true}, props["Done"])
}

func TestCreatePageUnderPage(t *testing.T) {
	var created map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pages" && r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.Write([]byte(`{"id":"new-page","url":"https://n/p","parent":{"type":"page_id","page_id":"parent1"},"properties":{}}`))
		default:
			// Database probe fails: the parent is a plain page.
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":"object_not_found","message":"nope"}`))
		}
	})

	page, err := client.CreatePage(context.Background(), types.CreatePageParams{
		ParentID: "parent1",
		Title:    "Child",
	})
	require.NoError(t, err)
	assert.Equal(t, "page", page.Parent.Type)

	parent := created["parent"].(map[string]any)
	assert.Equal(t, "parent1", parent["page_id"])
	props := created["properties"].(map[string]any)
	require.Contains(t, props, "title")
}

func TestCreatePageMissingParent(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.CreatePage(context.Background(), types.CreatePageParams{Title: "x"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestListBlocksPagination(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/blocks/blk1/children", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		assert.Equal(t, "cur-1", r.URL.Query().Get("start_cursor"))
		w.Write([]byte(`{
			"results": [{"id":"c1","type":"paragraph","has_children":false,
			             "paragraph":{"rich_text":[{"plain_text":"one"}]}}],
			"has_more": true,
			"next_cursor": "cur-2"
		}`))
	})

	page, err := client.ListBlocks(context.Background(), "blk1", &types.PageOptions{Limit: 50, Cursor: "cur-1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "one", page.Items[0].RichText)
	assert.True(t, page.HasMore)
	assert.Equal(t, "cur-2", page.NextCursor)
}

func TestListBlocksEscapesCursor(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Query parsing must recover the cursor byte for byte.
		assert.Equal(t, "a+b&c=d", r.URL.Query().Get("start_cursor"))
		w.Write([]byte(`{"results": [], "has_more": false}`))
	})

	_, err := client.ListBlocks(context.Background(), "blk1", &types.PageOptions{Cursor: "a+b&c=d"})
	require.NoError(t, err)
}

func TestAppendBlocksEmpty(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	err := client.AppendBlocks(context.Background(), "blk1", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestAddInlineCommentNotSupported(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.AddInlineComment(context.Background(), types.InlineCommentParams{
		BlockID: "b", Anchor: "a", Text: "t",
	})
	assert.ErrorIs(t, err, types.ErrNotSupported)
}

func TestSearch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "roadmap", req["query"])
		w.Write([]byte(`{
			"results": [
				{"object":"page","id":"p1","url":"https://n/p1",
				 "properties":{"Name":{"type":"title","title":[{"plain_text":"Roadmap"}]}}},
				{"object":"database","id":"d1","url":"https://n/d1",
				 "title":[{"plain_text":"Projects"}]}
			],
			"has_more": false
		}`))
	})

	results, err := client.Search(context.Background(), "roadmap", nil)
	require.NoError(t, err)
	require.Len(t, results.Items, 2)
	assert.Equal(t, "Roadmap", results.Items[0].Title)
	assert.Equal(t, "Projects", results.Items[1].Title)
	assert.False(t, results.HasMore)
}
