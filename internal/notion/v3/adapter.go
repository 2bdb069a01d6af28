package v3

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kairyu/notionctl/internal/notion/collect"
	"github.com/kairyu/notionctl/internal/notion/types"
)

// Client implements the capability interface on top of the operation
// builders and the session transport. Every mutation becomes one
// saveTransactions call; reads go through syncRecordValues.
type Client struct {
	transport *Transport
	spaceID   string
	userID    string
}

// NewClient creates a session-backed client.
func NewClient(token, userID, spaceID string, logger zerolog.Logger) *Client {
	return &Client{
		transport: NewTransport(DefaultBaseURL, token, userID, logger),
		spaceID:   spaceID,
		userID:    userID,
	}
}

// NewClientWithTransport wires an existing transport, used by tests.
func NewClientWithTransport(t *Transport, userID, spaceID string) *Client {
	return &Client{transport: t, spaceID: spaceID, userID: userID}
}

func (c *Client) blockPointer(id string) Pointer {
	return BlockPointer(id, c.spaceID)
}

func (c *Client) blockRecord(ctx context.Context, id string) (*BlockRecord, error) {
	var rec BlockRecord
	found, err := c.transport.SyncOne(ctx, c.blockPointer(id), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return &rec, nil
}

func (c *Client) collectionRecord(ctx context.Context, id string) (*CollectionRecord, bool, error) {
	var rec CollectionRecord
	found, err := c.transport.SyncOne(ctx, Pointer{Table: TableCollection, ID: id, SpaceID: c.spaceID}, &rec)
	if err != nil {
		return nil, false, err
	}
	return &rec, found, nil
}

type searchAPIResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
	Total     int                                  `json:"total"`
	RecordMap map[string]map[string]recordEnvelope `json:"recordMap"`
}

func (r searchAPIResponse) block(id string) (BlockRecord, bool) {
	env, ok := r.RecordMap[TableBlock][id]
	if !ok {
		return BlockRecord{}, false
	}
	var rec BlockRecord
	if err := json.Unmarshal(env.Value, &rec); err != nil {
		return BlockRecord{}, false
	}
	return rec, true
}

// Search queries BlocksInSpace. The session search has no resumable
// cursor; HasMore with an empty cursor tells the caller to re-scope
// (narrower query or smaller workspace area).
func (c *Client) Search(ctx context.Context, query string, opts *types.PageOptions) (*types.Paginated[types.SearchResult], error) {
	limit := limitOrDefault(opts, 20)
	payload := map[string]any{
		"type":    "BlocksInSpace",
		"query":   query,
		"spaceId": c.spaceID,
		"limit":   limit,
		"filters": map[string]any{
			"isDeletedOnly":             false,
			"excludeTemplates":          false,
			"navigableBlockContentOnly": true,
			"requireEditPermissions":    false,
			"ancestors":                 []string{},
			"createdBy":                 []string{},
			"editedBy":                  []string{},
			"lastEditedTime":            map[string]any{},
			"createdTime":               map[string]any{},
		},
		"sort": map[string]any{"field": "relevance"},
	}

	var resp searchAPIResponse
	if err := c.transport.Post(ctx, "search", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]types.SearchResult, 0, len(resp.Results))
	for _, hit := range resp.Results {
		rec, ok := resp.block(hit.ID)
		if !ok {
			results = append(results, types.SearchResult{ID: hit.ID, Object: "page"})
			continue
		}
		object := "page"
		if rec.Type == "collection_view_page" || rec.Type == "collection_view" {
			object = "database"
		}
		results = append(results, types.SearchResult{
			ID:     rec.ID,
			Object: object,
			Title:  rec.Properties["title"].Plain(),
		})
	}

	return &types.Paginated[types.SearchResult]{
		Items:   results,
		HasMore: resp.Total > len(results),
	}, nil
}

// ListDatabases searches navigable blocks and keeps database pages.
func (c *Client) ListDatabases(ctx context.Context, opts *types.PageOptions) (*types.Paginated[types.DatabaseSummary], error) {
	page, err := c.Search(ctx, "", &types.PageOptions{Limit: limitOrDefault(opts, 100)})
	if err != nil {
		return nil, err
	}
	var dbs []types.DatabaseSummary
	for _, hit := range page.Items {
		if hit.Object == "database" {
			dbs = append(dbs, types.DatabaseSummary{ID: hit.ID, Title: hit.Title})
		}
	}
	return &types.Paginated[types.DatabaseSummary]{Items: dbs, HasMore: page.HasMore}, nil
}

// resolveCollection accepts either a collection id or a database page
// block id and returns the collection record.
func (c *Client) resolveCollection(ctx context.Context, id string) (*CollectionRecord, error) {
	rec, found, err := c.collectionRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if found {
		return rec, nil
	}
	block, err := c.blockRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("database %s not found", id)
	}
	if block.CollectionID == "" {
		return nil, fmt.Errorf("block %s is not a database", id)
	}
	rec, found, err = c.collectionRecord(ctx, block.CollectionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("collection %s not found", block.CollectionID)
	}
	return rec, nil
}

func (c *Client) GetDatabase(ctx context.Context, id string) (*types.DatabaseSummary, error) {
	rec, err := c.resolveCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	return &types.DatabaseSummary{ID: rec.ID, Title: rec.Name.Plain()}, nil
}

func (c *Client) GetDatabaseSchema(ctx context.Context, id string) (types.DatabaseSchema, error) {
	rec, err := c.resolveCollection(ctx, id)
	if err != nil {
		return nil, err
	}
	schema := make(types.DatabaseSchema, len(rec.Schema))
	for pid, sprop := range rec.Schema {
		prop := types.SchemaProperty{ID: pid, Type: schemaTypeToOfficial(sprop.Type)}
		for _, o := range sprop.Options {
			prop.Options = append(prop.Options, types.SelectOption{Name: o.Value, Color: o.Color})
		}
		if sprop.Type == "relation" {
			prop.RelatedDatabase = sprop.CollectionID
		}
		schema[sprop.Name] = prop
	}
	return schema, nil
}

var v3SchemaTypes = map[string]string{
	"text":   "rich_text",
	"person": "people",
	"file":   "files",
}

func schemaTypeToOfficial(t string) string {
	if mapped, ok := v3SchemaTypes[t]; ok {
		return mapped
	}
	return t
}

type queryCollectionResponse struct {
	Result struct {
		ReducerResults struct {
			Results struct {
				BlockIDs []string `json:"blockIds"`
				HasMore  bool     `json:"hasMore"`
			} `json:"collection_group_results"`
		} `json:"reducerResults"`
	} `json:"result"`
	RecordMap map[string]map[string]recordEnvelope `json:"recordMap"`
}

// QueryDatabase loads collection rows through the reducer loader.
// Filters are passed through in the session vocabulary; callers built
// them from the flattened schema.
func (c *Client) QueryDatabase(ctx context.Context, id string, filter map[string]any, opts *types.PageOptions) (*types.Paginated[types.PageDetail], error) {
	collection, err := c.resolveCollection(ctx, id)
	if err != nil {
		return nil, err
	}

	viewID := ""
	if block, err := c.blockRecord(ctx, id); err == nil && len(block.ViewIDs) > 0 {
		viewID = block.ViewIDs[0]
	}

	limit := limitOrDefault(opts, 100)
	loader := map[string]any{
		"type": "reducer",
		"reducers": map[string]any{
			"collection_group_results": map[string]any{"type": "results", "limit": limit},
		},
	}
	if len(filter) > 0 {
		loader["filter"] = filter
	}

	var resp queryCollectionResponse
	payload := map[string]any{
		"collection":     map[string]any{"id": collection.ID, "spaceId": c.spaceID},
		"collectionView": map[string]any{"id": viewID, "spaceId": c.spaceID},
		"loader":         loader,
	}
	if err := c.transport.Post(ctx, "queryCollection", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	rows := resp.Result.ReducerResults.Results
	pages := make([]types.PageDetail, 0, len(rows.BlockIDs))
	for _, blockID := range rows.BlockIDs {
		env, ok := resp.RecordMap[TableBlock][blockID]
		if !ok {
			continue
		}
		var rec BlockRecord
		if err := json.Unmarshal(env.Value, &rec); err != nil {
			continue
		}
		pages = append(pages, c.pageDetail(rec, collection))
	}

	return &types.Paginated[types.PageDetail]{Items: pages, HasMore: rows.HasMore}, nil
}

func (c *Client) pageDetail(rec BlockRecord, collection *CollectionRecord) types.PageDetail {
	detail := types.PageDetail{
		ID:             rec.ID,
		Title:          rec.Properties["title"].Plain(),
		Parent:         parentRef(rec.ParentTable, rec.ParentID),
		Archived:       !rec.Alive,
		CreatedTime:    millisToString(rec.CreatedTime),
		LastEditedTime: millisToString(rec.LastEditedTime),
	}
	if collection != nil {
		detail.Properties = flattenRow(rec, collection.Schema)
	}
	return detail
}

// flattenRow projects a database row's id-keyed properties through the
// collection schema into name-keyed plain values.
func flattenRow(rec BlockRecord, schema map[string]CollectionSchemaProp) map[string]any {
	out := make(map[string]any, len(schema))
	for pid, sprop := range schema {
		out[sprop.Name] = flattenRowValue(sprop.Type, rec.Properties[pid])
	}
	return out
}

func flattenRowValue(schemaType string, value RichText) any {
	plain := value.Plain()
	switch schemaType {
	case "checkbox":
		return plain == "Yes"
	case "number":
		if plain == "" {
			return nil
		}
		n, err := strconv.ParseFloat(plain, 64)
		if err != nil {
			return nil
		}
		return n
	case "multi_select":
		if plain == "" {
			return []string{}
		}
		return strings.Split(plain, ",")
	case "select", "status":
		if plain == "" {
			return nil
		}
		return plain
	default:
		return plain
	}
}

func parentRef(table, id string) types.ParentRef {
	switch table {
	case TableSpace:
		return types.ParentRef{Type: "workspace"}
	case TableCollection:
		return types.ParentRef{Type: "database", ID: id}
	default:
		return types.ParentRef{Type: "page", ID: id}
	}
}

func (c *Client) GetPage(ctx context.Context, id string) (*types.PageDetail, error) {
	rec, err := c.blockRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	var collection *CollectionRecord
	if rec.ParentTable == TableCollection {
		if coll, found, err := c.collectionRecord(ctx, rec.ParentID); err == nil && found {
			collection = coll
		}
	}
	detail := c.pageDetail(*rec, collection)
	return &detail, nil
}

// CreatePage creates a page block under a page or database parent. A
// database parent is addressed through its collection; the title lands
// in the row's title column either way.
func (c *Client) CreatePage(ctx context.Context, params types.CreatePageParams) (*types.PageDetail, error) {
	if params.ParentID == "" {
		return nil, fmt.Errorf("create page: %w: missing parent id", types.ErrInvalidInput)
	}

	parentID := params.ParentID
	parentTable := TableBlock
	if collection, err := c.resolveCollection(ctx, params.ParentID); err == nil {
		parentID = collection.ID
		parentTable = TableCollection
	}

	props := map[string]RichText{"title": Text(params.Title)}
	for name, value := range params.Properties {
		props[name] = encodeSessionValue(value)
	}

	pageID := uuid.NewString()
	ops, err := CreateBlockOps(CreateBlockParams{
		ID:          pageID,
		Type:        "page",
		ParentID:    parentID,
		ParentTable: parentTable,
		SpaceID:     c.spaceID,
		UserID:      c.userID,
		Properties:  props,
	})
	if err != nil {
		return nil, err
	}
	if err := c.transport.SaveTransactions(ctx, c.spaceID, ops); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &types.PageDetail{
		ID:     pageID,
		Title:  params.Title,
		Parent: parentRef(parentTable, parentID),
	}, nil
}

func (c *Client) UpdatePage(ctx context.Context, id string, properties map[string]any) (*types.PageDetail, error) {
	props := make(map[string]RichText, len(properties))
	for name, value := range properties {
		props[name] = encodeSessionValue(value)
	}
	ops, err := UpdatePropertyOps(id, c.spaceID, c.userID, props, nil)
	if err != nil {
		return nil, err
	}
	if err := c.transport.SaveTransactions(ctx, c.spaceID, ops); err != nil {
		return nil, fmt.Errorf("failed to update page: %w", err)
	}
	return c.GetPage(ctx, id)
}

func (c *Client) ArchivePage(ctx context.Context, id string) error {
	rec, err := c.blockRecord(ctx, id)
	if err != nil {
		return err
	}
	ops, err := ArchiveBlockOps(id, rec.ParentID, rec.ParentTable, c.spaceID, c.userID)
	if err != nil {
		return err
	}
	if err := c.transport.SaveTransactions(ctx, c.spaceID, ops); err != nil {
		return fmt.Errorf("failed to archive page: %w", err)
	}
	return nil
}

// ListBlocks pages through a block's content list. The cursor is an
// offset into the parent's content id list.
func (c *Client) ListBlocks(ctx context.Context, blockID string, opts *types.PageOptions) (*types.Paginated[types.NormalizedBlock], error) {
	parent, err := c.blockRecord(ctx, blockID)
	if err != nil {
		return nil, err
	}

	offset := 0
	if opts != nil && opts.Cursor != "" {
		offset, err = strconv.Atoi(opts.Cursor)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("list blocks: %w: bad cursor %q", types.ErrInvalidInput, opts.Cursor)
		}
	}
	limit := limitOrDefault(opts, 100)

	content := parent.Content
	if offset >= len(content) {
		return &types.Paginated[types.NormalizedBlock]{}, nil
	}
	end := min(offset+limit, len(content))
	ids := content[offset:end]

	pointers := make([]Pointer, 0, len(ids))
	for _, id := range ids {
		pointers = append(pointers, c.blockPointer(id))
	}
	records, err := c.transport.SyncRecordValues(ctx, pointers)
	if err != nil {
		return nil, err
	}

	blocks := make([]types.NormalizedBlock, 0, len(ids))
	for _, id := range ids {
		var rec BlockRecord
		found, err := records.Decode(TableBlock, id, &rec)
		if err != nil || !found || !rec.Alive {
			continue
		}
		blocks = append(blocks, normalizeRecord(rec))
	}

	page := &types.Paginated[types.NormalizedBlock]{Items: blocks}
	if end < len(content) {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (c *Client) GetAllBlocks(ctx context.Context, blockID string) (*types.BlockCollection, error) {
	return collect.AllBlocks(ctx, c, blockID)
}

func (c *Client) GetChildBlocks(ctx context.Context, ids []string) (map[string]*types.BlockCollection, error) {
	return collect.ChildBlocks(ctx, c, ids)
}

// AppendBlocks maps public-API block objects through the internal
// vocabulary and submits all creations as one transaction.
func (c *Client) AppendBlocks(ctx context.Context, blockID string, blocks []types.BlockInput) error {
	if len(blocks) == 0 {
		return fmt.Errorf("append blocks: %w: no blocks", types.ErrInvalidInput)
	}

	var ops []Operation
	for _, input := range blocks {
		args := OfficialBlockToV3Args(input)
		blockOps, err := CreateBlockOps(CreateBlockParams{
			ID:          uuid.NewString(),
			Type:        args.Type,
			ParentID:    blockID,
			ParentTable: TableBlock,
			SpaceID:     c.spaceID,
			UserID:      c.userID,
			Properties:  args.Properties,
			Format:      args.Format,
		})
		if err != nil {
			return err
		}
		ops = append(ops, blockOps...)
	}
	if err := c.transport.SaveTransactions(ctx, c.spaceID, ops); err != nil {
		return fmt.Errorf("failed to append blocks: %w", err)
	}
	return nil
}

func (c *Client) ListComments(ctx context.Context, blockID string, opts *types.PageOptions) (*types.Paginated[types.Comment], error) {
	rec, err := c.blockRecord(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if len(rec.Discussions) == 0 {
		return &types.Paginated[types.Comment]{}, nil
	}

	pointers := make([]Pointer, 0, len(rec.Discussions))
	for _, id := range rec.Discussions {
		pointers = append(pointers, Pointer{Table: TableDiscussion, ID: id, SpaceID: c.spaceID})
	}
	records, err := c.transport.SyncRecordValues(ctx, pointers)
	if err != nil {
		return nil, err
	}

	var commentPtrs []Pointer
	commentDiscussion := map[string]string{}
	for _, discussionID := range rec.Discussions {
		var discussion DiscussionRecord
		found, err := records.Decode(TableDiscussion, discussionID, &discussion)
		if err != nil || !found || !discussion.Alive {
			continue
		}
		for _, commentID := range discussion.Comments {
			commentPtrs = append(commentPtrs, Pointer{Table: TableComment, ID: commentID, SpaceID: c.spaceID})
			commentDiscussion[commentID] = discussionID
		}
	}
	if len(commentPtrs) == 0 {
		return &types.Paginated[types.Comment]{}, nil
	}

	commentRecords, err := c.transport.SyncRecordValues(ctx, commentPtrs)
	if err != nil {
		return nil, err
	}

	var comments []types.Comment
	for _, ptr := range commentPtrs {
		var comment CommentRecord
		found, err := commentRecords.Decode(TableComment, ptr.ID, &comment)
		if err != nil || !found || !comment.Alive {
			continue
		}
		comments = append(comments, types.Comment{
			ID:           comment.ID,
			DiscussionID: commentDiscussion[comment.ID],
			Author:       comment.CreatedByID,
			Text:         comment.Text.Plain(),
			CreatedTime:  millisToString(comment.CreatedTime),
		})
	}
	return &types.Paginated[types.Comment]{Items: comments}, nil
}

func (c *Client) AddComment(ctx context.Context, pageID, text string) (*types.Comment, error) {
	if text == "" {
		return nil, fmt.Errorf("add comment: %w: empty text", types.ErrInvalidInput)
	}
	discussionID := uuid.NewString()
	commentID := uuid.NewString()
	ops, err := CreateCommentOps(discussionID, commentID, pageID, c.spaceID, c.userID, text)
	if err != nil {
		return nil, err
	}
	if err := c.transport.SaveTransactions(ctx, c.spaceID, ops); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &types.Comment{ID: commentID, DiscussionID: discussionID, Author: c.userID, Text: text}, nil
}

// AddInlineComment reads the target block's current title, splices the
// discussion anchor over the matched text range, and submits the whole
// discussion + comment + title update as one transaction. This is the
// only way text-anchored comments exist; the public API has no
// equivalent.
func (c *Client) AddInlineComment(ctx context.Context, params types.InlineCommentParams) (*types.Comment, error) {
	if params.Anchor == "" || params.Text == "" {
		return nil, fmt.Errorf("add inline comment: %w: anchor and text required", types.ErrInvalidInput)
	}
	rec, err := c.blockRecord(ctx, params.BlockID)
	if err != nil {
		return nil, err
	}

	discussionID := uuid.NewString()
	commentID := uuid.NewString()

	updatedTitle, err := SpliceAnchor(rec.Properties["title"], params.Anchor, params.Occurrence, discussionID)
	if err != nil {
		return nil, err
	}

	ops, err := CreateInlineCommentOps(discussionID, commentID, params.BlockID, c.spaceID, c.userID, params.Text, updatedTitle)
	if err != nil {
		return nil, err
	}
	if err := c.transport.SaveTransactions(ctx, c.spaceID, ops); err != nil {
		return nil, fmt.Errorf("failed to add inline comment: %w", err)
	}
	return &types.Comment{ID: commentID, DiscussionID: discussionID, Author: c.userID, Text: params.Text}, nil
}

func (c *Client) ListUsers(ctx context.Context, opts *types.PageOptions) (*types.Paginated[types.User], error) {
	var space SpaceRecord
	found, err := c.transport.SyncOne(ctx, Pointer{Table: TableSpace, ID: c.spaceID, SpaceID: c.spaceID}, &space)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("space %s not found", c.spaceID)
	}

	var pointers []Pointer
	for _, perm := range space.Permissions {
		if perm.UserID != "" {
			pointers = append(pointers, Pointer{Table: TableNotionUser, ID: perm.UserID, SpaceID: c.spaceID})
		}
	}
	if len(pointers) == 0 {
		return &types.Paginated[types.User]{}, nil
	}

	records, err := c.transport.SyncRecordValues(ctx, pointers)
	if err != nil {
		return nil, err
	}
	var users []types.User
	for _, ptr := range pointers {
		var rec UserRecord
		found, err := records.Decode(TableNotionUser, ptr.ID, &rec)
		if err != nil || !found {
			continue
		}
		users = append(users, types.User{ID: rec.ID, Name: rec.FullName(), Email: rec.Email, Type: "person"})
	}
	return &types.Paginated[types.User]{Items: users}, nil
}

func (c *Client) GetMe(ctx context.Context) (*types.User, error) {
	var rec UserRecord
	found, err := c.transport.SyncOne(ctx, Pointer{Table: TableNotionUser, ID: c.userID, SpaceID: c.spaceID}, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("user %s not found", c.userID)
	}
	return &types.User{ID: rec.ID, Name: rec.FullName(), Email: rec.Email, Type: "person"}, nil
}

// IsDatabase treats any retrieval failure as "not a database"; true
// type mismatch, not-found, and permission failures are
// indistinguishable here, inherited from the host API.
func (c *Client) IsDatabase(ctx context.Context, id string) bool {
	if _, found, err := c.collectionRecord(ctx, id); err == nil && found {
		return true
	}
	rec, err := c.blockRecord(ctx, id)
	if err != nil {
		return false
	}
	return rec.Type == "collection_view_page" || rec.Type == "collection_view"
}

func limitOrDefault(opts *types.PageOptions, def int) int {
	if opts == nil || opts.Limit <= 0 {
		return def
	}
	return opts.Limit
}

// millisToString renders an epoch-millisecond stamp in the same RFC
// 3339 form the public API uses, so canonical shapes do not vary by
// backend.
func millisToString(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// encodeSessionValue maps a plain property value into the [[value]]
// encoding. Like the official backend's write coercion this is
// heuristic: complex column types need pre-shaped session values.
func encodeSessionValue(v any) RichText {
	switch t := v.(type) {
	case string:
		return Text(t)
	case bool:
		if t {
			return Text("Yes")
		}
		return Text("No")
	case float64:
		return Text(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return Text(strconv.Itoa(t))
	default:
		return Text(fmt.Sprint(t))
	}
}
