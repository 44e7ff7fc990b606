package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gmtfrombc/ai-daily-feed/internal/models"
)

// ErrNotFound is returned when a record does not exist. Callers use it to
// distinguish absence (a consistency gap, a missing feed config) from a
// storage failure.
var ErrNotFound = errors.New("record not found")

// ErrInvalidRecord is returned when a stored document is missing a required
// field. Absence of a required field is a reported error kind, never a
// silent zero value.
var ErrInvalidRecord = errors.New("invalid record")

// Repository defines the interface for data persistence. Two backends
// implement it: SQLite (local/default) and Firestore.
type Repository interface {
	// Topic operations
	CreateTopic(ctx context.Context, topic *models.Topic) error
	GetTopic(ctx context.Context, id string) (*models.Topic, error)
	GetTopicByExternalID(ctx context.Context, externalID string) (*models.Topic, error)
	// ListTopicIDs returns identities only; it must not load content.
	ListTopicIDs(ctx context.Context) ([]string, error)
	ListTopics(ctx context.Context, filter TopicFilter) ([]*models.Topic, error)

	// Lesson operations (read-only, owned externally)
	GetLesson(ctx context.Context, id string) (*models.Lesson, error)

	// Draft operations
	CreateDraft(ctx context.Context, draft *models.Draft) error
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
	ListDrafts(ctx context.Context, filter DraftFilter) ([]*models.Draft, error)

	// History operations (append-only)
	CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error
	// ListRecentHistory returns the limit most recent entries, usedAt descending.
	ListRecentHistory(ctx context.Context, limit int) ([]*models.HistoryEntry, error)

	// Feed operations
	// ListPublishedArticles returns articles in rotation order:
	// orderIndex ascending, then id ascending as the tie-break.
	ListPublishedArticles(ctx context.Context) ([]*models.PublishedArticle, error)
	// GetFeedConfig returns ErrNotFound when the singleton does not exist yet.
	GetFeedConfig(ctx context.Context) (*models.FeedConfig, error)
	// SetCurrentArticle upserts the singleton config with the given article id.
	SetCurrentArticle(ctx context.Context, articleID string) error

	// Maintenance
	Migrate() error
	Close() error
}

// TopicFilter defines filtering options for topic listings
type TopicFilter struct {
	Limit     int
	Offset    int
	OrderDesc bool
}

// DraftFilter defines filtering options for draft listings
type DraftFilter struct {
	Status    *models.DraftStatus
	TopicID   *string
	Limit     int
	Offset    int
	OrderDesc bool
}

// DefaultDraftFilter returns a filter with sensible defaults
func DefaultDraftFilter() DraftFilter {
	return DraftFilter{
		Limit:     50,
		OrderDesc: true,
	}
}

// ValidateTopic checks the fields every usable topic must carry. Backends
// call it on point reads so an incomplete document surfaces as
// ErrInvalidRecord instead of flowing into generation.
func ValidateTopic(t *models.Topic) error {
	switch {
	case t.Title == "":
		return fmt.Errorf("topic %s: missing title: %w", t.ID, ErrInvalidRecord)
	case t.Content == "":
		return fmt.Errorf("topic %s: missing content: %w", t.ID, ErrInvalidRecord)
	case t.LessonID == "":
		return fmt.Errorf("topic %s: missing lessonId: %w", t.ID, ErrInvalidRecord)
	}
	return nil
}
