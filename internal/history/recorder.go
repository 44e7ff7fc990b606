// Package history appends immutable records of topic selections. A record
// is written only after the resulting draft has been persisted; this
// ordering is the system's only write-ordering guarantee.
package history

import (
	"context"
	"fmt"

	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

// Recorder appends selection history entries
type Recorder struct {
	repo storage.Repository
	log  *logger.Logger
}

// New creates a new history recorder
func New(repo storage.Repository, log *logger.Logger) *Recorder {
	return &Recorder{
		repo: repo,
		log:  log.WithComponent("history"),
	}
}

// Record appends one entry for a topic whose draft was durably persisted.
// The caller treats a failure here as soft: the draft stands, the topic may
// just come around again sooner than the lookback policy intends.
func (r *Recorder) Record(ctx context.Context, topic *models.Topic, draftID string) error {
	entry := &models.HistoryEntry{
		TopicID:    topic.ID,
		DraftID:    draftID,
		TopicTitle: topic.Title,
		LessonID:   topic.LessonID,
	}

	if err := r.repo.CreateHistoryEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to record selection of topic %s: %w", topic.ID, err)
	}

	r.log.Debug().
		Str("topic_id", topic.ID).
		Str("draft_id", draftID).
		Msg("Selection recorded")

	return nil
}
