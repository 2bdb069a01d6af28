// Package collect walks paginated block listings shared by both
// backends: full-tree collection under a hard cap, and bounded fan-out
// across multiple parent blocks.
package collect

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kairyu/notionctl/internal/notion/types"
)

const (
	// MaxBlocks caps one full collection. Hitting it reports truncation,
	// not an error; callers re-scope per child block for the remainder.
	MaxBlocks = 1000

	// pageSize is the per-request page size for collection sweeps.
	pageSize = 100

	// fanOutBatch bounds concurrent child fetches to stay under the
	// service's rate ceiling (~3 req/s average).
	fanOutBatch = 5
)

// BlockLister is the single paginated read both helpers are built on.
type BlockLister interface {
	ListBlocks(ctx context.Context, blockID string, opts *types.PageOptions) (*types.Paginated[types.NormalizedBlock], error)
}

// AllBlocks pages through a block's children until exhausted or MaxBlocks
// collected. Truncated=true with no cursor means the remainder is not
// resumable at this scope.
func AllBlocks(ctx context.Context, l BlockLister, blockID string) (*types.BlockCollection, error) {
	var collected []types.NormalizedBlock
	cursor := ""

	for {
		page, err := l.ListBlocks(ctx, blockID, &types.PageOptions{Limit: pageSize, Cursor: cursor})
		if err != nil {
			return nil, err
		}
		for _, b := range page.Items {
			if len(collected) >= MaxBlocks {
				return &types.BlockCollection{Blocks: collected, Truncated: true}, nil
			}
			collected = append(collected, b)
		}
		if !page.HasMore {
			return &types.BlockCollection{Blocks: collected}, nil
		}
		if len(collected) >= MaxBlocks {
			return &types.BlockCollection{Blocks: collected, Truncated: true}, nil
		}
		cursor = page.NextCursor
		if cursor == "" {
			// HasMore without a cursor: nothing further obtainable here.
			return &types.BlockCollection{Blocks: collected, Truncated: true}, nil
		}
	}
}

// ChildBlocks collects the full child list of each id, fanOutBatch ids
// at a time, sequential across batches. Each goroutine writes a disjoint
// slot, so no locking is needed.
func ChildBlocks(ctx context.Context, l BlockLister, ids []string) (map[string]*types.BlockCollection, error) {
	results := make([]*types.BlockCollection, len(ids))

	for start := 0; start < len(ids); start += fanOutBatch {
		end := start + fanOutBatch
		if end > len(ids) {
			end = len(ids)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				coll, err := AllBlocks(gctx, l, ids[i])
				if err != nil {
					return err
				}
				results[i] = coll
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]*types.BlockCollection, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}
