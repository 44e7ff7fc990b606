// Package storagetest provides an in-memory Repository for unit tests.
// Write counters let tests assert not just end state but how many writes it
// took to get there (the rotator's idempotent skip depends on that).
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
)

// Fake is an in-memory storage.Repository. Error fields, when set, are
// returned by the corresponding operation to simulate storage failures.
type Fake struct {
	mu sync.Mutex

	Topics   map[string]*models.Topic
	Lessons  map[string]*models.Lesson
	Drafts   map[string]*models.Draft
	History  []*models.HistoryEntry
	Articles []*models.PublishedArticle
	Config   *models.FeedConfig

	DraftWrites   int
	HistoryWrites int
	ConfigWrites  int

	ListTopicIDsErr      error
	GetTopicErr          error
	GetLessonErr         error
	CreateDraftErr       error
	CreateHistoryErr     error
	ListRecentHistoryErr error
	ListArticlesErr      error
	GetFeedConfigErr     error
	SetCurrentArticleErr error

	nextID int
	clock  time.Time
}

// New creates an empty fake repository
func New() *Fake {
	return &Fake{
		Topics:  make(map[string]*models.Topic),
		Lessons: make(map[string]*models.Lesson),
		Drafts:  make(map[string]*models.Draft),
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *Fake) genID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// tick stands in for server-assigned timestamps: strictly monotonic.
func (f *Fake) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// AddTopic stores a topic and returns it for convenience
func (f *Fake) AddTopic(t *models.Topic) *models.Topic {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = f.genID("topic")
	}
	f.Topics[t.ID] = t
	return t
}

// AddArticle appends a published article
func (f *Fake) AddArticle(a *models.PublishedArticle) *models.PublishedArticle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = f.genID("article")
	}
	f.Articles = append(f.Articles, a)
	return a
}

// Topic operations

func (f *Fake) CreateTopic(ctx context.Context, topic *models.Topic) error {
	f.AddTopic(topic)
	return nil
}

func (f *Fake) GetTopic(ctx context.Context, id string) (*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetTopicErr != nil {
		return nil, f.GetTopicErr
	}
	topic, ok := f.Topics[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if err := storage.ValidateTopic(topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (f *Fake) GetTopicByExternalID(ctx context.Context, externalID string) (*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.Topics {
		if t.ExternalID == externalID {
			return t, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *Fake) ListTopicIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListTopicIDsErr != nil {
		return nil, f.ListTopicIDsErr
	}
	ids := make([]string, 0, len(f.Topics))
	for id := range f.Topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *Fake) ListTopics(ctx context.Context, filter storage.TopicFilter) ([]*models.Topic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]*models.Topic, 0, len(f.Topics))
	for _, t := range f.Topics {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if filter.OrderDesc {
			return topics[i].CreatedAt.After(topics[j].CreatedAt)
		}
		return topics[i].CreatedAt.Before(topics[j].CreatedAt)
	})
	if filter.Limit > 0 && len(topics) > filter.Limit {
		topics = topics[:filter.Limit]
	}
	return topics, nil
}

// Lesson operations

func (f *Fake) GetLesson(ctx context.Context, id string) (*models.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetLessonErr != nil {
		return nil, f.GetLessonErr
	}
	lesson, ok := f.Lessons[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return lesson, nil
}

// Draft operations

func (f *Fake) CreateDraft(ctx context.Context, draft *models.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateDraftErr != nil {
		return f.CreateDraftErr
	}
	if draft.ID == "" {
		draft.ID = f.genID("draft")
	}
	draft.CreatedAt = f.tick()
	f.Drafts[draft.ID] = draft
	f.DraftWrites++
	return nil
}

func (f *Fake) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draft, ok := f.Drafts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return draft, nil
}

func (f *Fake) ListDrafts(ctx context.Context, filter storage.DraftFilter) ([]*models.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drafts := make([]*models.Draft, 0, len(f.Drafts))
	for _, d := range f.Drafts {
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.TopicID != nil && d.TopicID != *filter.TopicID {
			continue
		}
		drafts = append(drafts, d)
	}
	sort.Slice(drafts, func(i, j int) bool {
		if filter.OrderDesc {
			return drafts[i].CreatedAt.After(drafts[j].CreatedAt)
		}
		return drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
	})
	if filter.Limit > 0 && len(drafts) > filter.Limit {
		drafts = drafts[:filter.Limit]
	}
	return drafts, nil
}

// History operations

func (f *Fake) CreateHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateHistoryErr != nil {
		return f.CreateHistoryErr
	}
	if entry.ID == "" {
		entry.ID = f.genID("history")
	}
	entry.UsedAt = f.tick()
	f.History = append(f.History, entry)
	f.HistoryWrites++
	return nil
}

func (f *Fake) ListRecentHistory(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListRecentHistoryErr != nil {
		return nil, f.ListRecentHistoryErr
	}
	entries := make([]*models.HistoryEntry, len(f.History))
	copy(entries, f.History)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UsedAt.After(entries[j].UsedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Feed operations

func (f *Fake) ListPublishedArticles(ctx context.Context) ([]*models.PublishedArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListArticlesErr != nil {
		return nil, f.ListArticlesErr
	}
	articles := make([]*models.PublishedArticle, len(f.Articles))
	copy(articles, f.Articles)
	sort.Slice(articles, func(i, j int) bool {
		if articles[i].OrderIndex != articles[j].OrderIndex {
			return articles[i].OrderIndex < articles[j].OrderIndex
		}
		return articles[i].ID < articles[j].ID
	})
	return articles, nil
}

func (f *Fake) GetFeedConfig(ctx context.Context) (*models.FeedConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetFeedConfigErr != nil {
		return nil, f.GetFeedConfigErr
	}
	if f.Config == nil {
		return nil, storage.ErrNotFound
	}
	return f.Config, nil
}

func (f *Fake) SetCurrentArticle(ctx context.Context, articleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetCurrentArticleErr != nil {
		return f.SetCurrentArticleErr
	}
	if f.Config == nil {
		f.Config = &models.FeedConfig{ID: models.FeedConfigID}
	}
	f.Config.CurrentArticleID = articleID
	f.Config.UpdatedAt = f.tick()
	f.ConfigWrites++
	return nil
}

// Maintenance

func (f *Fake) Migrate() error { return nil }
func (f *Fake) Close() error   { return nil }

// Ensure Fake implements storage.Repository
var _ storage.Repository = (*Fake)(nil)
