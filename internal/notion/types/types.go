// Package types defines the canonical data shapes shared by every backend
// and the capability interface all backends implement. Commands only ever
// see these types; the question of which API vocabulary a value came from
// is settled inside the adapter that produced it.
package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for the capability taxonomy.
var (
	// ErrNotSupported marks an operation the selected backend cannot
	// perform. Callers should surface it as-is instead of emulating.
	ErrNotSupported = errors.New("not supported by this backend")

	// ErrInvalidInput marks malformed caller input detected before any
	// network call is attempted.
	ErrInvalidInput = errors.New("invalid input")
)

// NotSupportedf wraps ErrNotSupported with the operation name.
func NotSupportedf(op, backend string) error {
	return fmt.Errorf("%s: %w (backend %q)", op, ErrNotSupported, backend)
}

// BlockType enumerates the canonical block vocabulary. Unrecognized API
// types pass through with their original name.
type BlockType = string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockToggle           BlockType = "toggle"
	BlockCode             BlockType = "code"
	BlockQuote            BlockType = "quote"
	BlockCallout          BlockType = "callout"
	BlockDivider          BlockType = "divider"
	BlockImage            BlockType = "image"
	BlockBookmark         BlockType = "bookmark"
	BlockEquation         BlockType = "equation"
	BlockChildPage        BlockType = "child_page"
	BlockChildDatabase    BlockType = "child_database"
	BlockTableOfContents  BlockType = "table_of_contents"
	BlockBreadcrumb       BlockType = "breadcrumb"
	BlockColumnList       BlockType = "column_list"
	BlockColumn           BlockType = "column"
	BlockSyncedBlock      BlockType = "synced_block"
	BlockLinkPreview      BlockType = "link_preview"
	BlockEmbed            BlockType = "embed"
	BlockVideo            BlockType = "video"
	BlockPDF              BlockType = "pdf"
	BlockAudio            BlockType = "audio"
	BlockFile             BlockType = "file"
)

// NormalizedBlock is the canonical projection of one content block,
// independent of which API shape it was read from. RichText is always
// present (possibly empty) for text-bearing types.
type NormalizedBlock struct {
	ID          string    `json:"id"`
	Type        BlockType `json:"type"`
	RichText    string    `json:"richText"`
	HasChildren bool      `json:"hasChildren"`

	Checked    *bool  `json:"checked,omitempty"`
	Language   string `json:"language,omitempty"`
	URL        string `json:"url,omitempty"`
	Caption    string `json:"caption,omitempty"`
	Expression string `json:"expression,omitempty"`
	Title      string `json:"title,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
}

// BlockListing is the raw-listing projection of a block. Content holds
// the flattened text and is omitted entirely for structural types.
type BlockListing struct {
	ID          string    `json:"id"`
	Type        BlockType `json:"type"`
	Content     *string   `json:"content,omitempty"`
	HasChildren bool      `json:"hasChildren"`
}

var structuralBlockTypes = map[BlockType]bool{
	BlockDivider:         true,
	BlockColumnList:      true,
	BlockColumn:          true,
	BlockSyncedBlock:     true,
	BlockTableOfContents: true,
	BlockBreadcrumb:      true,
}

// Listing projects the block into the raw-listing shape. Text-bearing
// types always carry a content string, possibly empty.
func (b NormalizedBlock) Listing() BlockListing {
	l := BlockListing{ID: b.ID, Type: b.Type, HasChildren: b.HasChildren}
	if !structuralBlockTypes[b.Type] {
		text := b.RichText
		l.Content = &text
	}
	return l
}

// Paginated holds one page of results plus cursor state. NextCursor is
// empty when HasMore is false; HasMore=true with an empty cursor means
// the remainder is not obtainable with the current parameters (the
// caller must re-scope the request, not retry).
type Paginated[T any] struct {
	Items      []T
	HasMore    bool
	NextCursor string
}

type pageInfo struct {
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// MarshalJSON renders the canonical {items, pagination:{...}} shape.
func (p Paginated[T]) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(struct {
		Items      []T      `json:"items"`
		Pagination pageInfo `json:"pagination"`
	}{items, pageInfo{p.HasMore, p.NextCursor}})
}

// ParentRef identifies the parent of a page or block. Workspace parents
// carry no id.
type ParentRef struct {
	Type string `json:"type"` // database | page | workspace | block
	ID   string `json:"id,omitempty"`
}

// PageDetail is a page with its properties flattened to plain JSON.
type PageDetail struct {
	ID             string         `json:"id"`
	URL            string         `json:"url,omitempty"`
	Title          string         `json:"title"`
	Parent         ParentRef      `json:"parent"`
	Archived       bool           `json:"archived,omitempty"`
	CreatedTime    string         `json:"createdTime,omitempty"`
	LastEditedTime string         `json:"lastEditedTime,omitempty"`
	Properties     map[string]any `json:"properties,omitempty"`
}

// DatabaseSummary identifies a database without its schema.
type DatabaseSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// SelectOption is one choice of a select/multi_select/status column.
type SelectOption struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// SchemaProperty describes one database column for filter-building.
type SchemaProperty struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Options []SelectOption `json:"options,omitempty"`
	// Groups maps a status workflow group name to its member option names.
	Groups          map[string][]string `json:"groups,omitempty"`
	Prefix          string              `json:"prefix,omitempty"`
	RelatedDatabase string              `json:"relatedDatabase,omitempty"`
}

// DatabaseSchema maps property name to its definition.
type DatabaseSchema map[string]SchemaProperty

// SearchResult is one hit from a workspace search.
type SearchResult struct {
	ID     string `json:"id"`
	Object string `json:"object"` // page | database
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
}

// Comment is one comment in a discussion thread.
type Comment struct {
	ID           string `json:"id"`
	DiscussionID string `json:"discussionId,omitempty"`
	Author       string `json:"author,omitempty"`
	Text         string `json:"text"`
	CreatedTime  string `json:"createdTime,omitempty"`
}

// User is a workspace member or bot.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"`
}

// BlockInput is one block-creation object in the public-API JSON shape,
// as produced by the markdown converter and consumed by both backends.
// MarshalJSON emits the keyed {type, <type>:{...}} wire form.
type BlockInput struct {
	Type        string
	Text        string
	Checked     bool
	Language    string
	FileURL     string
	ExternalURL string
	Caption     string
	Expression  string
	Emoji       string
	Name        string
}

// SourceURL returns the media url, preferring a direct file url over an
// external one.
func (b BlockInput) SourceURL() string {
	if b.FileURL != "" {
		return b.FileURL
	}
	return b.ExternalURL
}

type richTextInput struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func richTextOf(s string) []richTextInput {
	var rt richTextInput
	rt.Type = "text"
	rt.Text.Content = s
	return []richTextInput{rt}
}

// MarshalJSON renders the public-API block object, e.g.
// {"object":"block","type":"paragraph","paragraph":{"rich_text":[...]}}.
func (b BlockInput) MarshalJSON() ([]byte, error) {
	payload := map[string]any{}
	switch b.Type {
	case BlockCode:
		payload["rich_text"] = richTextOf(b.Text)
		payload["language"] = b.Language
	case BlockToDo:
		payload["rich_text"] = richTextOf(b.Text)
		payload["checked"] = b.Checked
	case BlockDivider:
		// divider carries an empty payload
	case BlockEquation:
		payload["expression"] = b.Expression
	case BlockBookmark, BlockEmbed:
		payload["url"] = b.SourceURL()
	case BlockVideo, BlockPDF, BlockAudio, BlockImage, BlockFile:
		payload["external"] = map[string]string{"url": b.SourceURL()}
	default:
		payload["rich_text"] = richTextOf(b.Text)
	}
	return json.Marshal(map[string]any{
		"object": "block",
		"type":   b.Type,
		b.Type:   payload,
	})
}

// BlockCollection is the result of collecting a block's full child list.
// Truncated is set when the collection cap was hit with more data
// remaining server-side.
type BlockCollection struct {
	Blocks    []NormalizedBlock `json:"blocks"`
	Truncated bool              `json:"truncated,omitempty"`
}

// PageContent is a page's content tree rendered as markdown.
type PageContent struct {
	Content          string `json:"content"`
	BlockCount       int    `json:"blockCount"`
	ContentTruncated bool   `json:"contentTruncated,omitempty"`
}

// PageOptions bound one paginated read.
type PageOptions struct {
	Limit  int
	Cursor string
}

// CreatePageParams names a new page. Properties are coerced by the
// property builder; pre-shaped API values pass through unchanged.
type CreatePageParams struct {
	ParentID   string
	Title      string
	Properties map[string]any
}

// InlineCommentParams anchors a comment to a text range inside a block.
// Occurrence selects which match of Anchor is used when the text repeats
// (1-based; 0 means first).
type InlineCommentParams struct {
	BlockID    string
	Anchor     string
	Occurrence int
	Text       string
}

// Client is the capability interface both backends implement. Every
// method returns canonical types only.
type Client interface {
	Search(ctx context.Context, query string, opts *PageOptions) (*Paginated[SearchResult], error)

	ListDatabases(ctx context.Context, opts *PageOptions) (*Paginated[DatabaseSummary], error)
	GetDatabase(ctx context.Context, id string) (*DatabaseSummary, error)
	QueryDatabase(ctx context.Context, id string, filter map[string]any, opts *PageOptions) (*Paginated[PageDetail], error)
	GetDatabaseSchema(ctx context.Context, id string) (DatabaseSchema, error)
	IsDatabase(ctx context.Context, id string) bool

	GetPage(ctx context.Context, id string) (*PageDetail, error)
	CreatePage(ctx context.Context, params CreatePageParams) (*PageDetail, error)
	UpdatePage(ctx context.Context, id string, properties map[string]any) (*PageDetail, error)
	ArchivePage(ctx context.Context, id string) error

	ListBlocks(ctx context.Context, blockID string, opts *PageOptions) (*Paginated[NormalizedBlock], error)
	GetAllBlocks(ctx context.Context, blockID string) (*BlockCollection, error)
	GetChildBlocks(ctx context.Context, ids []string) (map[string]*BlockCollection, error)
	AppendBlocks(ctx context.Context, blockID string, blocks []BlockInput) error

	ListComments(ctx context.Context, blockID string, opts *PageOptions) (*Paginated[Comment], error)
	AddComment(ctx context.Context, pageID, text string) (*Comment, error)
	AddInlineComment(ctx context.Context, params InlineCommentParams) (*Comment, error)

	ListUsers(ctx context.Context, opts *PageOptions) (*Paginated[User], error)
	GetMe(ctx context.Context) (*User, error)
}

// HistoryEntry is one version snapshot of a page.
type HistoryEntry struct {
	ID        string   `json:"id"`
	Version   int      `json:"version"`
	Timestamp string   `json:"timestamp"`
	Authors   []string `json:"authors,omitempty"`
}

// Backlink records a block that links to the target page.
type Backlink struct {
	BlockID       string `json:"blockId"`
	MentionedFrom string `json:"mentionedFrom,omitempty"`
}

// ActivityEntry is one edit event from the activity feed.
type ActivityEntry struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp"`
	Authors   []string `json:"authors,omitempty"`
	BlockID   string   `json:"blockId,omitempty"`
}

// HistoryClient is the session-backend extension for reads the public
// API does not expose. Commands type-assert for it and report
// ErrNotSupported when the selected backend lacks it.
type HistoryClient interface {
	PageHistory(ctx context.Context, pageID string, limit int) ([]HistoryEntry, error)
	Backlinks(ctx context.Context, pageID string) ([]Backlink, error)
	ActivityLog(ctx context.Context, pageID string, limit int) ([]ActivityEntry, error)
}
