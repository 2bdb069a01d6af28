package v3

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairyu/notionctl/internal/notion/types"
)

// fakeSession serves syncRecordValues from a canned record store and
// captures every saveTransactions payload.
type fakeSession struct {
	records map[string]map[string]string
	saved   []map[string]any
	headers []http.Header
}

func (s *fakeSession) put(table, id, record string) {
	if s.records == nil {
		s.records = map[string]map[string]string{}
	}
	if s.records[table] == nil {
		s.records[table] = map[string]string{}
	}
	s.records[table][id] = record
}

func (s *fakeSession) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.headers = append(s.headers, r.Header.Clone())
		switch r.URL.Path {
		case "/syncRecordValues":
			var body struct {
				Requests []struct {
					Pointer Pointer `json:"pointer"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			recordMap := map[string]map[string]any{}
			for _, req := range body.Requests {
				p := req.Pointer
				if recordMap[p.Table] == nil {
					recordMap[p.Table] = map[string]any{}
				}
				if raw, ok := s.records[p.Table][p.ID]; ok {
					recordMap[p.Table][p.ID] = map[string]any{"value": json.RawMessage(raw)}
				} else {
					recordMap[p.Table][p.ID] = map[string]any{}
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"recordMap": recordMap})
		case "/saveTransactions":
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			s.saved = append(s.saved, payload)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected endpoint %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func sessionClient(t *testing.T, s *fakeSession) *Client {
	t.Helper()
	server := httptest.NewServer(s.handler(t))
	t.Cleanup(server.Close)
	transport := NewTransport(server.URL, "session-token", "user-1", zerolog.Nop())
	return NewClientWithTransport(transport, "user-1", "space-1")
}

// operations flattens the single transaction in a captured
// saveTransactions payload.
func operations(t *testing.T, payload map[string]any) []map[string]any {
	t.Helper()
	transactions, ok := payload["transactions"].([]any)
	require.True(t, ok)
	require.Len(t, transactions, 1)
	txn := transactions[0].(map[string]any)
	assert.Equal(t, "space-1", txn["spaceId"])
	raw, ok := txn["operations"].([]any)
	require.True(t, ok)
	ops := make([]map[string]any, len(raw))
	for i, op := range raw {
		ops[i] = op.(map[string]any)
	}
	return ops
}

func TestTransportHeaders(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "b1", `{"id":"b1","type":"text","alive":true}`)
	client := sessionClient(t, session)

	_, err := client.blockRecord(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, session.headers, 1)
	h := session.headers[0]
	assert.Equal(t, "token_v2=session-token", h.Get("Cookie"))
	assert.Equal(t, "user-1", h.Get("x-notion-active-user-header"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestTransportSessionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"name":"UnauthorizedError","message":"Token expired"}`))
	}))
	t.Cleanup(server.Close)
	transport := NewTransport(server.URL, "stale", "user-1", zerolog.Nop())

	err := transport.Post(context.Background(), "search", map[string]any{}, nil)
	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, http.StatusUnauthorized, sessionErr.Status)
	assert.Equal(t, "UnauthorizedError", sessionErr.Name)
	assert.Equal(t, "Token expired", sessionErr.Error())
}

func TestSaveTransactionsPayload(t *testing.T) {
	session := &fakeSession{}
	client := sessionClient(t, session)

	ops, err := ArchiveBlockOps("b1", "p1", TableBlock, "space-1", "user-1")
	require.NoError(t, err)
	require.NoError(t, client.transport.SaveTransactions(context.Background(), "space-1", ops))

	require.Len(t, session.saved, 1)
	payload := session.saved[0]
	assert.NotEmpty(t, payload["requestId"])
	captured := operations(t, payload)
	require.Len(t, captured, len(ops))
	first := captured[0]
	pointer := first["pointer"].(map[string]any)
	assert.Equal(t, TableBlock, pointer["table"])
	assert.Equal(t, "b1", pointer["id"])
}

func TestSaveTransactionsSkipsEmpty(t *testing.T) {
	session := &fakeSession{}
	client := sessionClient(t, session)

	require.NoError(t, client.transport.SaveTransactions(context.Background(), "space-1", nil))
	assert.Empty(t, session.saved)
	assert.Empty(t, session.headers)
}

func TestRecordMapDecode(t *testing.T) {
	m := RecordMap{
		TableBlock: {
			"b1":   json.RawMessage(`{"id":"b1","alive":true}`),
			"gone": json.RawMessage(`null`),
		},
	}

	var rec BlockRecord
	found, err := m.Decode(TableBlock, "b1", &rec)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b1", rec.ID)

	found, err = m.Decode(TableBlock, "gone", &rec)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = m.Decode(TableBlock, "missing", &rec)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetPage(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "page-1", `{
		"id": "page-1",
		"type": "page",
		"properties": {"title": [["Meeting Notes"]]},
		"parent_id": "parent-1",
		"parent_table": "block",
		"alive": true,
		"created_time": 1700000000000,
		"last_edited_time": 1700000001000
	}`)
	client := sessionClient(t, session)

	detail, err := client.GetPage(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, "page-1", detail.ID)
	assert.Equal(t, "Meeting Notes", detail.Title)
	assert.Equal(t, types.ParentRef{Type: "page", ID: "parent-1"}, detail.Parent)
	assert.False(t, detail.Archived)
	// Millis render in the public API's RFC 3339 form.
	assert.Equal(t, "2023-11-14T22:13:20Z", detail.CreatedTime)
}

func TestGetPageFlattensDatabaseRow(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "row-1", `{
		"id": "row-1",
		"type": "page",
		"properties": {
			"title": [["Buy milk"]],
			"dn01": [["Yes"]],
			"pr01": [["3"]]
		},
		"parent_id": "coll-1",
		"parent_table": "collection",
		"alive": true
	}`)
	session.put(TableCollection, "coll-1", `{
		"id": "coll-1",
		"name": [["Tasks"]],
		"schema": {
			"title": {"name": "Name", "type": "title"},
			"dn01": {"name": "Done", "type": "checkbox"},
			"pr01": {"name": "Priority", "type": "number"}
		},
		"alive": true
	}`)
	client := sessionClient(t, session)

	detail, err := client.GetPage(context.Background(), "row-1")
	require.NoError(t, err)
	assert.Equal(t, types.ParentRef{Type: "database", ID: "coll-1"}, detail.Parent)
	assert.Equal(t, true, detail.Properties["Done"])
	assert.Equal(t, 3.0, detail.Properties["Priority"])
	assert.Equal(t, "Buy milk", detail.Properties["Name"])
}

func TestListBlocksOffsetCursor(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "parent", `{
		"id": "parent",
		"type": "page",
		"content": ["c1", "c2", "c3"],
		"alive": true
	}`)
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("c%d", i)
		session.put(TableBlock, id, fmt.Sprintf(
			`{"id":%q,"type":"text","properties":{"title":[["line %d"]]},"alive":true}`, id, i))
	}
	client := sessionClient(t, session)

	page, err := client.ListBlocks(context.Background(), "parent", &types.PageOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "line 1", page.Items[0].RichText)
	assert.True(t, page.HasMore)
	assert.Equal(t, "2", page.NextCursor)

	page, err = client.ListBlocks(context.Background(), "parent", &types.PageOptions{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "line 3", page.Items[0].RichText)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
}

func TestListBlocksBadCursor(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "parent", `{"id":"parent","type":"page","alive":true}`)
	client := sessionClient(t, session)

	_, err := client.ListBlocks(context.Background(), "parent", &types.PageOptions{Cursor: "abc"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestListBlocksSkipsDeadRecords(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "parent", `{
		"id": "parent",
		"type": "page",
		"content": ["c1", "c2"],
		"alive": true
	}`)
	session.put(TableBlock, "c1", `{"id":"c1","type":"text","properties":{"title":[["kept"]]},"alive":true}`)
	session.put(TableBlock, "c2", `{"id":"c2","type":"text","alive":false}`)
	client := sessionClient(t, session)

	page, err := client.ListBlocks(context.Background(), "parent", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "kept", page.Items[0].RichText)
}

func TestAppendBlocksOneTransaction(t *testing.T) {
	session := &fakeSession{}
	client := sessionClient(t, session)

	err := client.AppendBlocks(context.Background(), "parent", []types.BlockInput{
		{Type: "paragraph", Text: "first"},
		{Type: "heading_1", Text: "second"},
	})
	require.NoError(t, err)

	// Both creations travel in one saveTransactions call.
	require.Len(t, session.saved, 1)
	ops := operations(t, session.saved[0])
	assert.Len(t, ops, 6)

	// Each block contributes a set, a listAfter onto the parent, and an
	// edit-metadata stamp.
	assert.Equal(t, "set", ops[0]["command"])
	listAfter := ops[1]
	assert.Equal(t, "listAfter", listAfter["command"])
	pointer := listAfter["pointer"].(map[string]any)
	assert.Equal(t, "parent", pointer["id"])
}

func TestAppendBlocksRejectsEmpty(t *testing.T) {
	session := &fakeSession{}
	client := sessionClient(t, session)

	err := client.AppendBlocks(context.Background(), "parent", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Empty(t, session.saved)
}

func TestCreatePageUnderDatabase(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "db-page", `{
		"id": "db-page",
		"type": "collection_view_page",
		"collection_id": "coll-1",
		"alive": true
	}`)
	session.put(TableCollection, "coll-1", `{
		"id": "coll-1",
		"name": [["Tasks"]],
		"schema": {"title": {"name": "Name", "type": "title"}},
		"alive": true
	}`)
	client := sessionClient(t, session)

	detail, err := client.CreatePage(context.Background(), types.CreatePageParams{
		ParentID: "db-page",
		Title:    "New task",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, detail.ID)
	assert.Equal(t, types.ParentRef{Type: "database", ID: "coll-1"}, detail.Parent)

	require.Len(t, session.saved, 1)
	ops := operations(t, session.saved[0])
	require.NotEmpty(t, ops)
	args := ops[0]["args"].(map[string]any)
	assert.Equal(t, "coll-1", args["parent_id"])
	assert.Equal(t, TableCollection, args["parent_table"])
}

func TestCreatePageMissingParent(t *testing.T) {
	session := &fakeSession{}
	client := sessionClient(t, session)

	_, err := client.CreatePage(context.Background(), types.CreatePageParams{Title: "orphan"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestIsDatabase(t *testing.T) {
	session := &fakeSession{}
	session.put(TableCollection, "coll-1", `{"id":"coll-1","alive":true}`)
	session.put(TableBlock, "db-page", `{"id":"db-page","type":"collection_view_page","alive":true}`)
	session.put(TableBlock, "plain", `{"id":"plain","type":"page","alive":true}`)
	client := sessionClient(t, session)

	ctx := context.Background()
	assert.True(t, client.IsDatabase(ctx, "coll-1"))
	assert.True(t, client.IsDatabase(ctx, "db-page"))
	assert.False(t, client.IsDatabase(ctx, "plain"))
	assert.False(t, client.IsDatabase(ctx, "missing"))
}

func TestGetDatabaseSchema(t *testing.T) {
	session := &fakeSession{}
	session.put(TableCollection, "coll-1", `{
		"id": "coll-1",
		"name": [["Tasks"]],
		"schema": {
			"title": {"name": "Name", "type": "title"},
			"st01": {"name": "Stage", "type": "select", "options": [
				{"id": "o1", "value": "Todo", "color": "red"},
				{"id": "o2", "value": "Done", "color": "green"}
			]},
			"no01": {"name": "Notes", "type": "text"},
			"re01": {"name": "Project", "type": "relation", "collection_id": "coll-2"}
		},
		"alive": true
	}`)
	client := sessionClient(t, session)

	schema, err := client.GetDatabaseSchema(context.Background(), "coll-1")
	require.NoError(t, err)
	assert.Equal(t, "title", schema["Name"].Type)
	// Internal vocabulary maps onto the public property types.
	assert.Equal(t, "rich_text", schema["Notes"].Type)
	assert.Equal(t, "coll-2", schema["Project"].RelatedDatabase)
	require.Len(t, schema["Stage"].Options, 2)
	assert.Equal(t, "Todo", schema["Stage"].Options[0].Name)
}

func TestListCommentsWalksDiscussions(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "b1", `{
		"id": "b1",
		"type": "text",
		"discussions": ["d1"],
		"alive": true
	}`)
	session.put(TableDiscussion, "d1", `{"id":"d1","comments":["cm1","cm2"],"alive":true}`)
	session.put(TableComment, "cm1", `{"id":"cm1","text":[["Looks good"]],"created_by_id":"user-2","created_time":1700000000000,"alive":true}`)
	session.put(TableComment, "cm2", `{"id":"cm2","text":[["stale"]],"alive":false}`)
	client := sessionClient(t, session)

	page, err := client.ListComments(context.Background(), "b1", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	comment := page.Items[0]
	assert.Equal(t, "cm1", comment.ID)
	assert.Equal(t, "d1", comment.DiscussionID)
	assert.Equal(t, "user-2", comment.Author)
	assert.Equal(t, "Looks good", comment.Text)
	assert.Equal(t, "2023-11-14T22:13:20Z", comment.CreatedTime)
}

func TestAddInlineCommentSplicesAnchor(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "b1", `{
		"id": "b1",
		"type": "text",
		"properties": {"title": [["review this sentence"]]},
		"parent_id": "p1",
		"parent_table": "block",
		"alive": true
	}`)
	client := sessionClient(t, session)

	comment, err := client.AddInlineComment(context.Background(), types.InlineCommentParams{
		BlockID: "b1",
		Anchor:  "this",
		Text:    "why?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, comment.DiscussionID)
	assert.Equal(t, "user-1", comment.Author)

	require.Len(t, session.saved, 1)
	ops := operations(t, session.saved[0])
	assert.Len(t, ops, 8)
}

func TestAddInlineCommentAnchorNotFound(t *testing.T) {
	session := &fakeSession{}
	session.put(TableBlock, "b1", `{
		"id": "b1",
		"type": "text",
		"properties": {"title": [["nothing matches here"]]},
		"alive": true
	}`)
	client := sessionClient(t, session)

	_, err := client.AddInlineComment(context.Background(), types.InlineCommentParams{
		BlockID: "b1",
		Anchor:  "absent",
		Text:    "?",
	})
	require.Error(t, err)
	assert.Empty(t, session.saved)
}

func TestListUsersFromSpacePermissions(t *testing.T) {
	session := &fakeSession{}
	session.put(TableSpace, "space-1", `{
		"id": "space-1",
		"name": "Workspace",
		"permissions": [
			{"type": "user_permission", "user_id": "user-1"},
			{"type": "user_permission", "user_id": "user-2"},
			{"type": "bot_permission"}
		]
	}`)
	session.put(TableNotionUser, "user-1", `{"id":"user-1","given_name":"Ada","family_name":"Lovelace","email":"ada@example.com"}`)
	session.put(TableNotionUser, "user-2", `{"id":"user-2","given_name":"Alan"}`)
	client := sessionClient(t, session)

	page, err := client.ListUsers(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Ada Lovelace", page.Items[0].Name)
	assert.Equal(t, "ada@example.com", page.Items[0].Email)
	assert.Equal(t, "Alan", page.Items[1].Name)
}

func TestSearchMarksDatabases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BlocksInSpace", body["type"])
		assert.Equal(t, "roadmap", body["query"])
		w.Write([]byte(`{
			"results": [{"id": "p1"}, {"id": "d1"}],
			"total": 2,
			"recordMap": {"block": {
				"p1": {"value": {"id": "p1", "type": "page", "properties": {"title": [["Roadmap notes"]]}}},
				"d1": {"value": {"id": "d1", "type": "collection_view_page", "properties": {"title": [["Roadmap db"]]}}}
			}}
		}`))
	}))
	t.Cleanup(server.Close)
	transport := NewTransport(server.URL, "tok", "user-1", zerolog.Nop())
	client := NewClientWithTransport(transport, "user-1", "space-1")

	page, err := client.Search(context.Background(), "roadmap", nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "page", page.Items[0].Object)
	assert.Equal(t, "database", page.Items[1].Object)
	assert.Equal(t, "Roadmap db", page.Items[1].Title)
	assert.False(t, page.HasMore)
}
