// Package firestore implements the repository against Cloud Firestore, the
// document store the hosted deployment runs on. SQLite stays the default for
// local use; both backends satisfy the same interface.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
)

// Collection names, kept compatible with the existing production data.
const (
	colTopics   = "topics"
	colLessons  = "lessons"
	colDrafts   = "drafts"
	colHistory  = "selection_history"
	colArticles = "published_articles"
	colConfig   = "config"
)

// Repository implements storage.Repository using Cloud Firestore
type Repository struct {
	client *firestore.Client
}

// Config holds Firestore connection settings
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// New creates a new Firestore repository
func New(ctx context.Context, cfg Config) (*Repository, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Repository{client: client}, nil
}

// Migrate is a no-op: Firestore collections are created on first write
func (r *Repository) Migrate() error {
	return nil
}

// Close closes the Firestore client
func (r *Repository) Close() error {
	return r.client.Close()
}

func wrapNotFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return storage.ErrNotFound
	}
	return err
}

// Topic operations

func (r *Repository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	if topic.ID == "" {
		ref, _, err := r.client.Collection(colTopics).Add(ctx, topic)
		if err != nil {
			return fmt.Errorf("failed to add topic: %w", err)
		}
		topic.ID = ref.ID
		return nil
	}
	_, err := r.client.Collection(colTopics).Doc(topic.ID).Set(ctx, topic)
	return err
}

func (r *Repository) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	snap, err := r.client.Collection(colTopics).Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	var topic models.Topic
	if err := snap.DataTo(&topic); err != nil {
		return nil, fmt.Errorf("failed to decode topic %s: %w", id, err)
	}
	topic.ID = snap.Ref.ID

	if err := storage.ValidateTopic(&topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *Repository) GetTopicByExternalID(ctx context.Context, externalID string) (*models.Topic, error) {
	iter := r.client.Collection(colTopics).
		Where("externalId", "==", externalID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var topic models.Topic
	if err := snap.DataTo(&topic); err != nil {
		return nil, fmt.Errorf("failed to decode topic: %w", err)
	}
	topic.ID = snap.Ref.ID
	return &topic, nil
}

// ListTopicIDs lists document ids only; Select() keeps field payloads off
// the wire.
func (r *Repository) ListTopicIDs(ctx context.Context) ([]string, error) {
	iter := r.client.Collection(colTopics).Select().Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list topic ids: %w", err)
		}
		ids = append(ids, snap.Ref.ID)
	}
	return ids, nil
}

func (r *Repository) ListTopics(ctx context.Context, filter storage.TopicFilter) ([]*models.Topic, error) {
	dir := firestore.Asc
	if filter.OrderDesc {
		dir = firestore.Desc
	}
	query := r.client.Collection(colTopics).OrderBy("createdAt", dir)
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var topics []*models.Topic
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list topics: %w", err)
		}
		var topic models.Topic
		if err := snap.DataTo(&topic); err != nil {
			return nil, fmt.Errorf("failed to decode topic %s: %w", snap.Ref.ID, err)
		}
		topic.ID = snap.Ref.ID
		topics = append(topics, &topic)
	}
	return topics, nil
}

// Lesson operations

func (r *Repository) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	snap, err := r.client.Collection(colLessons).Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	var lesson models.Lesson
	if err := snap.DataTo(&lesson); err != nil {
		return nil, fmt.Errorf("failed to decode lesson %s: %w", id, err)
	}
	lesson.ID = snap.Ref.ID
	return &lesson, nil
}

// Draft operations

func (r *Repository) CreateDraft(ctx context.Context, draft *models.Draft) error {
	if draft.ID == "" {
		ref, _, err := r.client.Collection(colDrafts).Add(ctx, draft)
		if err != nil {
			return fmt.Errorf("failed to add draft: %w", err)
		}
		draft.ID = ref.ID
		return nil
	}
	_, err := r.client.Collection(colDrafts).Doc(draft.ID).Set(ctx, draft)
	return err
}

func (r *Repository) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	snap, err := r.client.Collection(colDrafts).Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	var draft models.Draft
	if err := snap.DataTo(&draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	draft.ID = snap.Ref.ID
	return &draft, nil
}

func (r *Repository) ListDrafts(ctx context.Context, filter storage.DraftFilter) ([]*models.Draft, error) {
	query := r.client.Collection(colDrafts).Query
	if filter.Status != nil {
		query = query.Where("status", "==", string(*filter.Status))
	}
	if filter.TopicID != nil {
		query = query.Where("topicId", "==", *filter.TopicID)
	}

	dir := firestore.Asc
	if filter.OrderDesc {
		dir = firestore.Desc
	}
	query = query.OrderBy("createdAt", dir)
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var drafts []*models.Draft
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list drafts: %w", err)
		}
		var draft models.Draft
		if err := snap.DataTo(&draft); err != nil {
			return nil, fmt.Errorf("failed to decode draft %s: %w", snap.Ref.ID, err)
		}
		draft.ID = snap.Ref.ID
		drafts = append(drafts, &draft)
	}
	return drafts, nil
}

// History operations

func (r *Repository) CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	ref, _, err := r.client.Collection(colHistory).Add(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	entry.ID = ref.ID
	return nil
}

func (r *Repository) ListRecentHistory(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	query := r.client.Collection(colHistory).OrderBy("usedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var entries []*models.HistoryEntry
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list history: %w", err)
		}
		var entry models.HistoryEntry
		if err := snap.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode history entry %s: %w", snap.Ref.ID, err)
		}
		entry.ID = snap.Ref.ID
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Feed operations

func (r *Repository) ListPublishedArticles(ctx context.Context) ([]*models.PublishedArticle, error) {
	iter := r.client.Collection(colArticles).
		OrderBy("orderIndex", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc). // tie-break on duplicate indices
		Documents(ctx)
	defer iter.Stop()

	var articles []*models.PublishedArticle
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list published articles: %w", err)
		}
		var article models.PublishedArticle
		if err := snap.DataTo(&article); err != nil {
			return nil, fmt.Errorf("failed to decode article %s: %w", snap.Ref.ID, err)
		}
		article.ID = snap.Ref.ID
		articles = append(articles, &article)
	}
	return articles, nil
}

func (r *Repository) GetFeedConfig(ctx context.Context) (*models.FeedConfig, error) {
	snap, err := r.client.Collection(colConfig).Doc(models.FeedConfigID).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	var cfg models.FeedConfig
	if err := snap.DataTo(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode feed config: %w", err)
	}
	cfg.ID = snap.Ref.ID
	return &cfg, nil
}

// SetCurrentArticle merge-upserts the singleton: the document is created if
// missing, only the pointer and timestamp change otherwise.
func (r *Repository) SetCurrentArticle(ctx context.Context, articleID string) error {
	_, err := r.client.Collection(colConfig).Doc(models.FeedConfigID).Set(ctx, map[string]interface{}{
		"currentArticleId": articleID,
		"updatedAt":        firestore.ServerTimestamp,
	}, firestore.MergeAll)
	return err
}
