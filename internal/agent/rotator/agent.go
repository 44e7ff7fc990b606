// Package rotator advances the "current article" pointer through the
// published-article list. Rotation is modular over the dense 0-based rank
// of the ordered list, not over stored orderIndex values, so gaps in the
// indices cannot break it.
package rotator

import (
	"context"
	"errors"
	"fmt"

	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

// Agent rotates the live-article pointer
type Agent struct {
	repo storage.Repository
	log  *logger.Logger
}

// New creates a new feed rotator
func New(repo storage.Repository, log *logger.Logger) *Agent {
	return &Agent{
		repo: repo,
		log:  log.WithComponent("rotator"),
	}
}

// RunResult summarizes one rotation run
type RunResult struct {
	CurrentID  string `json:"current_id"`
	PreviousID string `json:"previous_id,omitempty"`
	Articles   int    `json:"articles"`
	Rotated    bool   `json:"rotated"`
}

// Run advances the pointer once. A stale or missing pointer self-heals to
// the first-ranked article. The config write is skipped when the pointer
// would not change. Any storage error aborts the run; the next trigger is
// the retry.
func (a *Agent) Run(ctx context.Context) (*RunResult, error) {
	articles, err := a.repo.ListPublishedArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list published articles: %w", err)
	}

	if len(articles) == 0 {
		a.log.Warn().Msg("No published articles, nothing to rotate")
		return &RunResult{}, nil
	}

	currentID := ""
	cfg, err := a.repo.GetFeedConfig(ctx)
	switch {
	case err == nil:
		currentID = cfg.CurrentArticleID
	case errors.Is(err, storage.ErrNotFound):
		// First rotation, config created below.
	default:
		return nil, fmt.Errorf("failed to load feed config: %w", err)
	}

	if len(articles) == 1 {
		return a.converge(ctx, currentID, articles[0].ID, 1)
	}

	// Stale or absent pointer resolves to -1, so the next index is 0.
	currentIndex := -1
	for i, article := range articles {
		if article.ID == currentID {
			currentIndex = i
			break
		}
	}

	nextID := articles[(currentIndex+1)%len(articles)].ID
	return a.converge(ctx, currentID, nextID, len(articles))
}

// converge writes the pointer only when it changes.
func (a *Agent) converge(ctx context.Context, currentID, nextID string, count int) (*RunResult, error) {
	result := &RunResult{
		CurrentID:  nextID,
		PreviousID: currentID,
		Articles:   count,
	}

	if nextID == currentID {
		a.log.Debug().
			Str("article_id", currentID).
			Msg("Feed pointer unchanged, skipping write")
		return result, nil
	}

	if err := a.repo.SetCurrentArticle(ctx, nextID); err != nil {
		return nil, fmt.Errorf("failed to update feed pointer: %w", err)
	}
	result.Rotated = true

	a.log.Info().
		Str("previous", currentID).
		Str("current", nextID).
		Int("articles", count).
		Msg("Feed rotated")

	return result, nil
}
