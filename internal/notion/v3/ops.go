package v3

import (
	"fmt"
	"sort"
	"time"

	"github.com/kairyu/notionctl/internal/notion/types"
)

// Record tables in the internal store.
const (
	TableBlock      = "block"
	TableCollection = "collection"
	TableDiscussion = "discussion"
	TableComment    = "comment"
	TableNotionUser = "notion_user"
	TableSpace      = "space"
)

// Operation commands.
const (
	CommandSet        = "set"
	CommandUpdate     = "update"
	CommandListAfter  = "listAfter"
	CommandListRemove = "listRemove"
)

// Pointer addresses one record in the internal store.
type Pointer struct {
	Table   string `json:"table"`
	ID      string `json:"id"`
	SpaceID string `json:"spaceId"`
}

// Operation is one low-level mutation. A sequence submitted together is
// the atomic unit of change: the store applies all or none, so one
// logical user action must always travel as one submission.
type Operation struct {
	Pointer Pointer  `json:"pointer"`
	Path    []string `json:"path"`
	Command string   `json:"command"`
	Args    any      `json:"args"`
}

// BlockPointer addresses a block record.
func BlockPointer(id, spaceID string) Pointer {
	return Pointer{Table: TableBlock, ID: id, SpaceID: spaceID}
}

// timeNow is stubbed in tests.
var timeNow = func() int64 { return time.Now().UnixMilli() }

// editMetaOp stamps last-edited metadata on a record. Every mutation
// sequence ends with one on the record whose content list or fields
// changed.
func editMetaOp(p Pointer, userID string) Operation {
	return Operation{
		Pointer: p,
		Path:    []string{},
		Command: CommandUpdate,
		Args: map[string]any{
			"last_edited_time":     timeNow(),
			"last_edited_by_id":    userID,
			"last_edited_by_table": TableNotionUser,
		},
	}
}

// parentPointer coerces the parent table: collection parents are
// addressed as block records for content-list purposes.
func parentPointer(parentID, parentTable, spaceID string) Pointer {
	if parentTable == TableCollection {
		parentTable = TableBlock
	}
	return Pointer{Table: parentTable, ID: parentID, SpaceID: spaceID}
}

// CreateBlockParams identifies the new block and its place in the tree.
type CreateBlockParams struct {
	ID          string
	Type        string
	ParentID    string
	ParentTable string
	SpaceID     string
	UserID      string
	Properties  map[string]RichText
	Format      map[string]any
}

// CreateBlockOps builds the full create sequence: set the block record,
// link it into the parent's content list, stamp the parent.
func CreateBlockOps(p CreateBlockParams) ([]Operation, error) {
	if p.ID == "" || p.ParentID == "" || p.SpaceID == "" || p.UserID == "" {
		return nil, fmt.Errorf("create block ops: %w: missing identifier", types.ErrInvalidInput)
	}
	now := timeNow()
	parentTable := p.ParentTable
	if parentTable == "" {
		parentTable = TableBlock
	}

	record := map[string]any{
		"id":                   p.ID,
		"type":                 p.Type,
		"version":              0,
		"created_time":         now,
		"last_edited_time":     now,
		"parent_id":            p.ParentID,
		"parent_table":         parentTable,
		"alive":                true,
		"created_by_id":        p.UserID,
		"created_by_table":     TableNotionUser,
		"last_edited_by_id":    p.UserID,
		"last_edited_by_table": TableNotionUser,
		"space_id":             p.SpaceID,
	}
	if len(p.Properties) > 0 {
		record["properties"] = p.Properties
	}
	if len(p.Format) > 0 {
		record["format"] = p.Format
	}

	parent := parentPointer(p.ParentID, parentTable, p.SpaceID)
	return []Operation{
		{Pointer: BlockPointer(p.ID, p.SpaceID), Path: []string{}, Command: CommandSet, Args: record},
		{Pointer: parent, Path: []string{"content"}, Command: CommandListAfter, Args: map[string]any{"id": p.ID}},
		editMetaOp(parent, p.UserID),
	}, nil
}

// ArchiveBlockOps soft-deletes a block: alive=false and unlink from the
// parent's content list. The record identity is never dropped.
func ArchiveBlockOps(id, parentID, parentTable, spaceID, userID string) ([]Operation, error) {
	if id == "" || parentID == "" || spaceID == "" || userID == "" {
		return nil, fmt.Errorf("archive block ops: %w: missing identifier", types.ErrInvalidInput)
	}
	if parentTable == "" {
		parentTable = TableBlock
	}
	parent := parentPointer(parentID, parentTable, spaceID)
	return []Operation{
		{
			Pointer: BlockPointer(id, spaceID),
			Path:    []string{},
			Command: CommandUpdate,
			Args: map[string]any{
				"alive":                false,
				"last_edited_time":     timeNow(),
				"last_edited_by_id":    userID,
				"last_edited_by_table": TableNotionUser,
			},
		},
		{Pointer: parent, Path: []string{"content"}, Command: CommandListRemove, Args: map[string]any{"id": id}},
		editMetaOp(parent, userID),
	}, nil
}

// UpdatePropertyOps sets each property and format key individually, then
// stamps the block. Empty maps still produce the edit-meta trailer.
func UpdatePropertyOps(id, spaceID, userID string, properties map[string]RichText, format map[string]any) ([]Operation, error) {
	if id == "" || spaceID == "" || userID == "" {
		return nil, fmt.Errorf("update property ops: %w: missing identifier", types.ErrInvalidInput)
	}
	ptr := BlockPointer(id, spaceID)
	var ops []Operation
	for _, key := range sortedKeys(properties) {
		ops = append(ops, Operation{
			Pointer: ptr,
			Path:    []string{"properties", key},
			Command: CommandSet,
			Args:    properties[key],
		})
	}
	for _, key := range sortedKeys(format) {
		ops = append(ops, Operation{
			Pointer: ptr,
			Path:    []string{"format", key},
			Command: CommandSet,
			Args:    format[key],
		})
	}
	ops = append(ops, editMetaOp(ptr, userID))
	return ops, nil
}

// CreateCommentOps builds a new top-level discussion on a page plus its
// first comment. Discussions created here are never threaded.
func CreateCommentOps(discussionID, commentID, pageID, spaceID, userID, text string) ([]Operation, error) {
	if discussionID == "" || commentID == "" || pageID == "" || spaceID == "" || userID == "" {
		return nil, fmt.Errorf("create comment ops: %w: missing identifier", types.ErrInvalidInput)
	}
	return commentOps(discussionID, commentID, pageID, spaceID, userID, text), nil
}

// CreateInlineCommentOps anchors a new discussion to a text block. The
// caller supplies updatedTitle: the block's current title with the
// ["m", discussionID] anchor decoration spliced over the matched range
// (see SpliceAnchor).
func CreateInlineCommentOps(discussionID, commentID, blockID, spaceID, userID, text string, updatedTitle RichText) ([]Operation, error) {
	if discussionID == "" || commentID == "" || blockID == "" || spaceID == "" || userID == "" {
		return nil, fmt.Errorf("create inline comment ops: %w: missing identifier", types.ErrInvalidInput)
	}
	ptr := BlockPointer(blockID, spaceID)
	ops := commentOps(discussionID, commentID, blockID, spaceID, userID, text)
	ops = append(ops,
		Operation{Pointer: ptr, Path: []string{"properties", "title"}, Command: CommandSet, Args: updatedTitle},
		editMetaOp(ptr, userID),
	)
	return ops, nil
}

// commentOps is the shared 6-operation core: create and link the
// discussion record, create and link the comment record, stamp the
// comment's timestamps.
func commentOps(discussionID, commentID, parentBlockID, spaceID, userID, text string) []Operation {
	now := timeNow()
	discussionPtr := Pointer{Table: TableDiscussion, ID: discussionID, SpaceID: spaceID}
	commentPtr := Pointer{Table: TableComment, ID: commentID, SpaceID: spaceID}

	return []Operation{
		{
			Pointer: discussionPtr,
			Path:    []string{},
			Command: CommandSet,
			Args: map[string]any{
				"id":           discussionID,
				"version":      1,
				"parent_id":    parentBlockID,
				"parent_table": TableBlock,
				"resolved":     false,
				"comments":     []string{},
				"space_id":     spaceID,
				"alive":        true,
			},
		},
		{
			Pointer: BlockPointer(parentBlockID, spaceID),
			Path:    []string{"discussions"},
			Command: CommandListAfter,
			Args:    map[string]any{"id": discussionID},
		},
		{
			Pointer: commentPtr,
			Path:    []string{},
			Command: CommandSet,
			Args: map[string]any{
				"id":               commentID,
				"version":          1,
				"parent_id":        discussionID,
				"parent_table":     TableDiscussion,
				"text":             Text(text),
				"created_by_id":    userID,
				"created_by_table": TableNotionUser,
				"space_id":         spaceID,
				"alive":            true,
			},
		},
		{
			Pointer: discussionPtr,
			Path:    []string{"comments"},
			Command: CommandListAfter,
			Args:    map[string]any{"id": commentID},
		},
		{Pointer: commentPtr, Path: []string{"created_time"}, Command: CommandSet, Args: now},
		{Pointer: commentPtr, Path: []string{"last_edited_time"}, Command: CommandSet, Args: now},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic operation order keeps transactions reproducible.
	sort.Strings(keys)
	return keys
}
