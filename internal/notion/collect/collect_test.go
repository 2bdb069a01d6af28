package collect

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairyu/notionctl/internal/notion/types"
)

// fakeLister serves a fixed child count per block id, paging by integer
// cursor, and tracks peak concurrency.
type fakeLister struct {
	counts map[string]int

	mu      sync.Mutex
	active  int
	peak    int
	calls   int
	failFor string
}

func (f *fakeLister) ListBlocks(ctx context.Context, blockID string, opts *types.PageOptions) (*types.Paginated[types.NormalizedBlock], error) {
	f.mu.Lock()
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.calls++
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if blockID == f.failFor {
		return nil, fmt.Errorf("boom")
	}

	total := f.counts[blockID]
	offset := 0
	if opts != nil && opts.Cursor != "" {
		offset, _ = strconv.Atoi(opts.Cursor)
	}
	limit := pageSize
	if opts != nil && opts.Limit > 0 {
		limit = opts.Limit
	}

	end := offset + limit
	if end > total {
		end = total
	}
	items := make([]types.NormalizedBlock, 0, end-offset)
	for i := offset; i < end; i++ {
		items = append(items, types.NormalizedBlock{ID: fmt.Sprintf("%s-%d", blockID, i), Type: types.BlockParagraph})
	}

	page := &types.Paginated[types.NormalizedBlock]{Items: items}
	if end < total {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func TestAllBlocksExhaustsPages(t *testing.T) {
	l := &fakeLister{counts: map[string]int{"page": 250}}

	coll, err := AllBlocks(context.Background(), l, "page")
	require.NoError(t, err)
	assert.Len(t, coll.Blocks, 250)
	assert.False(t, coll.Truncated)
	assert.Equal(t, 3, l.calls)
}

func TestAllBlocksCapsAtMaxBlocks(t *testing.T) {
	l := &fakeLister{counts: map[string]int{"page": 1050}}

	coll, err := AllBlocks(context.Background(), l, "page")
	require.NoError(t, err)
	assert.Len(t, coll.Blocks, MaxBlocks)
	assert.True(t, coll.Truncated)
}

func TestAllBlocksTruncatesOnDeadCursor(t *testing.T) {
	// HasMore with no cursor: the remainder is unreachable at this scope.
	l := &deadCursorLister{}

	coll, err := AllBlocks(context.Background(), l, "page")
	require.NoError(t, err)
	assert.Len(t, coll.Blocks, 1)
	assert.True(t, coll.Truncated)
}

type deadCursorLister struct{}

func (deadCursorLister) ListBlocks(ctx context.Context, blockID string, opts *types.PageOptions) (*types.Paginated[types.NormalizedBlock], error) {
	return &types.Paginated[types.NormalizedBlock]{
		Items:   []types.NormalizedBlock{{ID: "only"}},
		HasMore: true,
	}, nil
}

func TestChildBlocksFanOut(t *testing.T) {
	counts := make(map[string]int)
	var ids []string
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("blk-%d", i)
		counts[id] = i + 1
		ids = append(ids, id)
	}
	l := &fakeLister{counts: counts}

	out, err := ChildBlocks(context.Background(), l, ids)
	require.NoError(t, err)
	require.Len(t, out, 12)
	for i, id := range ids {
		require.NotNil(t, out[id])
		assert.Len(t, out[id].Blocks, i+1)
	}
	assert.LessOrEqual(t, l.peak, fanOutBatch)
}

func TestChildBlocksPropagatesError(t *testing.T) {
	l := &fakeLister{
		counts:  map[string]int{"ok": 1, "bad": 1},
		failFor: "bad",
	}

	_, err := ChildBlocks(context.Background(), l, []string{"ok", "bad"})
	assert.Error(t, err)
}
