package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairyu/notionctl/internal/notion/types"
)

func stubTime(t *testing.T, millis int64) {
	t.Helper()
	orig := timeNow
	timeNow = func() int64 { return millis }
	t.Cleanup(func() { timeNow = orig })
}

func TestCreateBlockOps(t *testing.T) {
	stubTime(t, 1700000000000)

	ops, err := CreateBlockOps(CreateBlockParams{
		ID:         "blk-1",
		Type:       "text",
		ParentID:   "page-1",
		SpaceID:    "space-1",
		UserID:     "user-1",
		Properties: map[string]RichText{"title": Text("hello")},
	})
	require.NoError(t, err)
	require.Len(t, ops, 3)

	set := ops[0]
	assert.Equal(t, CommandSet, set.Command)
	assert.Equal(t, BlockPointer("blk-1", "space-1"), set.Pointer)
	assert.Empty(t, set.Path)

	record := set.Args.(map[string]any)
	assert.Equal(t, "text", record["type"])
	assert.Equal(t, 0, record["version"])
	assert.Equal(t, true, record["alive"])
	assert.Equal(t, "page-1", record["parent_id"])
	assert.Equal(t, TableBlock, record["parent_table"])
	assert.Equal(t, int64(1700000000000), record["created_time"])
	assert.Equal(t, "user-1", record["created_by_id"])

	link := ops[1]
	assert.Equal(t, CommandListAfter, link.Command)
	assert.Equal(t, []string{"content"}, link.Path)
	assert.Equal(t, BlockPointer("page-1", "space-1"), link.Pointer)
	assert.Equal(t, map[string]any{"id": "blk-1"}, link.Args)

	meta := ops[2]
	assert.Equal(t, CommandUpdate, meta.Command)
	assert.Equal(t, BlockPointer("page-1", "space-1"), meta.Pointer)
}

func TestCreateBlockOpsCollectionParentAddressedAsBlock(t *testing.T) {
	ops, err := CreateBlockOps(CreateBlockParams{
		ID:          "row-1",
		Type:        "page",
		ParentID:    "coll-1",
		ParentTable: TableCollection,
		SpaceID:     "space-1",
		UserID:      "user-1",
	})
	require.NoError(t, err)

	record := ops[0].Args.(map[string]any)
	assert.Equal(t, TableCollection, record["parent_table"])

	// Content-list linkage addresses the collection as a block record.
	assert.Equal(t, TableBlock, ops[1].Pointer.Table)
	assert.Equal(t, "coll-1", ops[1].Pointer.ID)
	assert.Equal(t, TableBlock, ops[2].Pointer.Table)
}

func TestCreateBlockOpsMissingID(t *testing.T) {
	_, err := CreateBlockOps(CreateBlockParams{ParentID: "p", SpaceID: "s", UserID: "u"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestArchiveBlockOps(t *testing.T) {
	stubTime(t, 42)

	ops, err := ArchiveBlockOps("blk-1", "page-1", "", "space-1", "user-1")
	require.NoError(t, err)
	require.Len(t, ops, 3)

	update := ops[0]
	assert.Equal(t, CommandUpdate, update.Command)
	assert.Equal(t, "blk-1", update.Pointer.ID)
	args := update.Args.(map[string]any)
	// Soft delete: alive flips, the record id stays.
	assert.Equal(t, false, args["alive"])
	assert.Equal(t, int64(42), args["last_edited_time"])

	unlink := ops[1]
	assert.Equal(t, CommandListRemove, unlink.Command)
	assert.Equal(t, []string{"content"}, unlink.Path)
	assert.Equal(t, map[string]any{"id": "blk-1"}, unlink.Args)
}

func TestUpdatePropertyOpsSortedWithTrailer(t *testing.T) {
	ops, err := UpdatePropertyOps("blk-1", "space-1", "user-1", map[string]RichText{
		"b": Text("2"),
		"a": Text("1"),
	}, nil)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	assert.Equal(t, []string{"properties", "a"}, ops[0].Path)
	assert.Equal(t, []string{"properties", "b"}, ops[1].Path)
	assert.Equal(t, CommandUpdate, ops[2].Command)
}

func TestUpdatePropertyOpsEmptyStillStamps(t *testing.T) {
	ops, err := UpdatePropertyOps("blk-1", "space-1", "user-1", nil, nil)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, CommandUpdate, ops[0].Command)
}

func TestCreateCommentOps(t *testing.T) {
	ops, err := CreateCommentOps("disc-1", "com-1", "page-1", "space-1", "user-1", "nice")
	require.NoError(t, err)
	require.Len(t, ops, 6)

	discussion := ops[0].Args.(map[string]any)
	assert.Equal(t, false, discussion["resolved"])
	assert.Equal(t, "page-1", discussion["parent_id"])
	assert.Equal(t, TableBlock, discussion["parent_table"])

	assert.Equal(t, []string{"discussions"}, ops[1].Path)
	assert.Equal(t, TableBlock, ops[1].Pointer.Table)

	comment := ops[2].Args.(map[string]any)
	assert.Equal(t, "disc-1", comment["parent_id"])
	assert.Equal(t, Text("nice"), comment["text"])

	assert.Equal(t, []string{"comments"}, ops[3].Path)
	assert.Equal(t, []string{"created_time"}, ops[4].Path)
	assert.Equal(t, []string{"last_edited_time"}, ops[5].Path)
}

func TestCreateInlineCommentOps(t *testing.T) {
	title, err := SpliceAnchor(Text("fix the typo"), "typo", 1, "disc-1")
	require.NoError(t, err)

	ops, err := CreateInlineCommentOps("disc-1", "com-1", "blk-1", "space-1", "user-1", "here", title)
	require.NoError(t, err)
	require.Len(t, ops, 8)

	titleSet := ops[6]
	assert.Equal(t, CommandSet, titleSet.Command)
	assert.Equal(t, []string{"properties", "title"}, titleSet.Path)
	assert.Equal(t, title, titleSet.Args)

	assert.Equal(t, CommandUpdate, ops[7].Command)
	assert.Equal(t, "blk-1", ops[7].Pointer.ID)
}

func TestCommentOpsMissingIdentifier(t *testing.T) {
	_, err := CreateCommentOps("", "com-1", "page-1", "space-1", "user-1", "x")
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = CreateInlineCommentOps("d", "", "blk", "space", "user", "x", nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
