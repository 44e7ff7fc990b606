// Package selector implements recency-aware topic selection: pick a topic
// outside the lookback window, falling back to the full pool once every
// topic has been used within it.
package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

// ErrNoTopics is returned when the topic pool is empty. This is the hard
// stop of a generation run: no draft, no history entry.
var ErrNoTopics = errors.New("no topics available")

// LookbackWindow returns the anti-repeat window size for a pool of the
// given size: half the pool, never less than one. Scaling with the pool
// keeps small pools from starving and large pools diverse.
func LookbackWindow(totalTopics int) int {
	w := totalTopics / 2
	if w < 1 {
		w = 1
	}
	return w
}

// Selector picks the next topic to generate from. Selection is read-only;
// nothing is recorded until the caller persists a draft and commits a
// history entry, so a failed run can always be retried by the next trigger.
type Selector struct {
	repo storage.Repository
	log  *logger.Logger
}

// New creates a new topic selector
func New(repo storage.Repository, log *logger.Logger) *Selector {
	return &Selector{
		repo: repo,
		log:  log.WithComponent("selector"),
	}
}

// Select returns exactly one topic to use next, or ErrNoTopics when the
// pool is empty. Any storage failure, a topic vanishing between listing and
// fetch, or an incomplete topic document is definitive for this run; there
// is no inline retry.
func (s *Selector) Select(ctx context.Context) (*models.Topic, error) {
	ids, err := s.repo.ListTopicIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoTopics
	}

	window := LookbackWindow(len(ids))
	recent, err := s.repo.ListRecentHistory(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load selection history: %w", err)
	}

	recentSet := make(map[string]struct{}, len(recent))
	for _, entry := range recent {
		recentSet[entry.TopicID] = struct{}{}
	}

	available := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, used := recentSet[id]; !used {
			available = append(available, id)
		}
	}

	// Lapped: every topic sits inside the window. Reset to the full pool
	// rather than failing.
	if len(available) == 0 {
		s.log.Info().
			Int("pool", len(ids)).
			Int("window", window).
			Msg("All topics used within lookback window, resetting to full pool")
		available = ids
	}

	id := available[rand.Intn(len(available))]

	topic, err := s.repo.GetTopic(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("selected topic %s vanished after listing: %w", id, err)
		}
		return nil, fmt.Errorf("failed to fetch topic %s: %w", id, err)
	}

	s.log.Info().
		Str("topic_id", topic.ID).
		Str("title", topic.Title).
		Int("pool", len(ids)).
		Int("window", window).
		Int("available", len(available)).
		Msg("Topic selected")

	return topic, nil
}
