package v3

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kairyu/notionctl/internal/notion/types"
)

// The reads in this file have no public-API equivalent; they are the
// reason a session backend exists at all alongside version-anchored
// inline comments.

type snapshotsResponse struct {
	Snapshots []struct {
		ID        string `json:"id"`
		Version   int    `json:"version"`
		Timestamp int64  `json:"timestamp"`
		Authors   []struct {
			ID string `json:"id"`
		} `json:"authors"`
	} `json:"snapshots"`
}

// PageHistory lists version snapshots of a page, newest first.
func (c *Client) PageHistory(ctx context.Context, pageID string, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var resp snapshotsResponse
	payload := map[string]any{
		"blockId": pageID,
		"size":    limit,
	}
	if err := c.transport.Post(ctx, "getSnapshotsList", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	entries := make([]types.HistoryEntry, 0, len(resp.Snapshots))
	for _, s := range resp.Snapshots {
		entry := types.HistoryEntry{
			ID:        s.ID,
			Version:   s.Version,
			Timestamp: strconv.FormatInt(s.Timestamp, 10),
		}
		for _, a := range s.Authors {
			entry.Authors = append(entry.Authors, a.ID)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type backlinksResponse struct {
	Backlinks []struct {
		BlockID       string `json:"block_id"`
		MentionedFrom struct {
			Type    string `json:"type"`
			BlockID string `json:"block_id"`
		} `json:"mentioned_from"`
	} `json:"backlinks"`
}

// Backlinks lists blocks that link to the given page.
func (c *Client) Backlinks(ctx context.Context, pageID string) ([]types.Backlink, error) {
	var resp backlinksResponse
	payload := map[string]any{
		"block": map[string]any{"id": pageID, "spaceId": c.spaceID},
	}
	if err := c.transport.Post(ctx, "getBacklinksForBlock", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to get backlinks: %w", err)
	}

	links := make([]types.Backlink, 0, len(resp.Backlinks))
	for _, b := range resp.Backlinks {
		from := b.MentionedFrom.BlockID
		if from == "" {
			from = b.MentionedFrom.Type
		}
		links = append(links, types.Backlink{BlockID: b.BlockID, MentionedFrom: from})
	}
	return links, nil
}

type activityResponse struct {
	ActivityIDs []string                             `json:"activityIds"`
	RecordMap   map[string]map[string]recordEnvelope `json:"recordMap"`
}

type activityRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	StartTime string `json:"start_time"`
	ParentID  string `json:"parent_id"`
	Edits     []struct {
		Authors []struct {
			ID string `json:"id"`
		} `json:"authors"`
	} `json:"edits"`
}

// ActivityLog lists recent edit events for a page subtree.
func (c *Client) ActivityLog(ctx context.Context, pageID string, limit int) ([]types.ActivityEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	var resp activityResponse
	payload := map[string]any{
		"navigableBlockId": pageID,
		"spaceId":          c.spaceID,
		"limit":            limit,
	}
	if err := c.transport.Post(ctx, "getActivityLog", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to get activity log: %w", err)
	}

	records := RecordMap{}
	for table, recs := range resp.RecordMap {
		records[table] = map[string]json.RawMessage{}
		for id, env := range recs {
			records[table][id] = env.Value
		}
	}

	entries := make([]types.ActivityEntry, 0, len(resp.ActivityIDs))
	for _, id := range resp.ActivityIDs {
		var rec activityRecord
		found, err := records.Decode("activity", id, &rec)
		if err != nil || !found {
			continue
		}
		entry := types.ActivityEntry{
			ID:        rec.ID,
			Type:      rec.Type,
			Timestamp: rec.StartTime,
			BlockID:   rec.ParentID,
		}
		seen := map[string]bool{}
		for _, edit := range rec.Edits {
			for _, a := range edit.Authors {
				if !seen[a.ID] {
					seen[a.ID] = true
					entry.Authors = append(entry.Authors, a.ID)
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
