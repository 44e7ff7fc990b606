package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.Topic{},
		&models.Lesson{},
		&models.Draft{},
		&models.HistoryEntry{},
		&models.PublishedArticle{},
		&models.FeedConfig{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// Topic operations

func (r *Repository) CreateTopic(ctx context.Context, topic *models.Topic) error {
	if topic.ID == "" {
		topic.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *Repository) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).First(&topic, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	if err := storage.ValidateTopic(&topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *Repository) GetTopicByExternalID(ctx context.Context, externalID string) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&topic).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &topic, nil
}

func (r *Repository) ListTopicIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Topic{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) ListTopics(ctx context.Context, filter storage.TopicFilter) ([]*models.Topic, error) {
	var topics []*models.Topic
	query := r.db.WithContext(ctx).Model(&models.Topic{})

	if filter.OrderDesc {
		query = query.Order("created_at DESC")
	} else {
		query = query.Order("created_at ASC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

// Lesson operations

func (r *Repository) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &lesson, nil
}

// Draft operations

func (r *Repository) CreateDraft(ctx context.Context, draft *models.Draft) error {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(draft).Error
}

func (r *Repository) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	var draft models.Draft
	if err := r.db.WithContext(ctx).First(&draft, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &draft, nil
}

func (r *Repository) ListDrafts(ctx context.Context, filter storage.DraftFilter) ([]*models.Draft, error) {
	var drafts []*models.Draft
	query := r.db.WithContext(ctx).Model(&models.Draft{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.TopicID != nil {
		query = query.Where("topic_id = ?", *filter.TopicID)
	}

	if filter.OrderDesc {
		query = query.Order("created_at DESC")
	} else {
		query = query.Order("created_at ASC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&drafts).Error; err != nil {
		return nil, err
	}
	return drafts, nil
}

// History operations

func (r *Repository) CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListRecentHistory(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	query := r.db.WithContext(ctx).Model(&models.HistoryEntry{}).Order("used_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Feed operations

func (r *Repository) ListPublishedArticles(ctx context.Context) ([]*models.PublishedArticle, error) {
	var articles []*models.PublishedArticle
	if err := r.db.WithContext(ctx).
		Order("order_index ASC, id ASC").
		Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *Repository) GetFeedConfig(ctx context.Context) (*models.FeedConfig, error) {
	var cfg models.FeedConfig
	if err := r.db.WithContext(ctx).First(&cfg, "id = ?", models.FeedConfigID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &cfg, nil
}

// SetCurrentArticle upserts the singleton: created if missing, pointer
// replaced otherwise.
func (r *Repository) SetCurrentArticle(ctx context.Context, articleID string) error {
	cfg := models.FeedConfig{
		ID:               models.FeedConfigID,
		CurrentArticleID: articleID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&cfg).Error
}
