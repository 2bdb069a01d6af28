package notion

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kairyu/notionctl/internal/config"
	"github.com/kairyu/notionctl/internal/notion/api"
	"github.com/kairyu/notionctl/internal/notion/types"
	"github.com/kairyu/notionctl/internal/notion/v3"
)

// Re-export types for convenience
type Client = types.Client
type HistoryClient = types.HistoryClient
type PageOptions = types.PageOptions
type PageDetail = types.PageDetail
type SearchResult = types.SearchResult
type BlockInput = types.BlockInput
type CreatePageParams = types.CreatePageParams
type InlineCommentParams = types.InlineCommentParams

// NewClient creates a Notion client for the backend the config selects
func NewClient(cfg *config.Config, logger zerolog.Logger) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendSession:
		return v3.NewClient(cfg.SessionToken, cfg.UserID, cfg.SpaceID, logger), nil
	case config.BackendOfficial, "":
		return api.NewClient(cfg.Token, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
