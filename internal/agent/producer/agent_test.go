package producer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmtfrombc/ai-daily-feed/internal/ai"
	"github.com/gmtfrombc/ai-daily-feed/internal/history"
	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/selector"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage/storagetest"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

type fakeGenerator struct {
	title string
	body  string
	err   error
	calls int
}

func (g *fakeGenerator) GenerateDraft(ctx context.Context, topic *models.Topic) (string, string, error) {
	g.calls++
	if g.err != nil {
		return "", "", g.err
	}
	return g.title, g.body, nil
}

type fakeImages struct {
	url string
	err error
}

func (f *fakeImages) FindImage(ctx context.Context, query string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func newAgent(fake *storagetest.Fake, gen Generator, images ImageSearcher) *Agent {
	log := testLogger()
	return New(selector.New(fake, log), history.New(fake, log), fake, gen, images, log)
}

func seedTopic(fake *storagetest.Fake) *models.Topic {
	return fake.AddTopic(&models.Topic{
		ID:       "topic-1",
		Title:    "Sleep and recovery",
		Content:  "Deep sleep drives physical recovery.",
		LessonID: "lesson-1",
	})
}

func TestRunProducesPendingDraftAndHistory(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedTopic(fake)
	gen := &fakeGenerator{title: "Why sleep matters", body: "Article body."}

	result, err := newAgent(fake, gen, nil).Run(ctx)
	require.NoError(t, err)

	draft, err := fake.GetDraft(ctx, result.DraftID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPending, draft.Status)
	assert.Equal(t, "Why sleep matters", draft.Title)
	assert.Equal(t, "Article body.", draft.Content)
	assert.Equal(t, "topic-1", draft.TopicID)
	assert.Equal(t, "lesson-1", draft.LessonID)
	assert.False(t, result.Placeholder)

	require.Len(t, fake.History, 1)
	entry := fake.History[0]
	assert.Equal(t, "topic-1", entry.TopicID)
	assert.Equal(t, draft.ID, entry.DraftID)
	assert.Equal(t, "Sleep and recovery", entry.TopicTitle)
}

func TestRunGenerationFailureWritesPlaceholder(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedTopic(fake)
	gen := &fakeGenerator{err: errors.New("model unavailable")}

	result, err := newAgent(fake, gen, nil).Run(ctx)
	require.NoError(t, err, "generation failure must not abort the run")
	assert.True(t, result.Placeholder)

	draft, err := fake.GetDraft(ctx, result.DraftID)
	require.NoError(t, err)
	assert.Equal(t, ai.PlaceholderTitle, draft.Title)
	assert.Equal(t, ai.PlaceholderBody, draft.Content)
	assert.Equal(t, models.DraftStatusPending, draft.Status)

	// The selection still counts: history is recorded for the placeholder.
	assert.Len(t, fake.History, 1)
}

func TestRunDraftWriteFailureRecordsNoHistory(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedTopic(fake)
	fake.CreateDraftErr = errors.New("write failed")
	gen := &fakeGenerator{title: "T", body: "B"}

	_, err := newAgent(fake, gen, nil).Run(ctx)
	require.Error(t, err)

	assert.Zero(t, fake.HistoryWrites, "history must never precede a durable draft")
	assert.Empty(t, fake.History)
}

func TestRunHistoryWriteFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedTopic(fake)
	fake.CreateHistoryErr = errors.New("append failed")
	gen := &fakeGenerator{title: "T", body: "B"}

	result, err := newAgent(fake, gen, nil).Run(ctx)
	require.NoError(t, err, "history failure must not fail the run")

	_, err = fake.GetDraft(ctx, result.DraftID)
	assert.NoError(t, err, "draft stands even when history recording failed")
	assert.Empty(t, fake.History)
}

func TestRunEmptyPoolProducesNothing(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	gen := &fakeGenerator{title: "T", body: "B"}

	_, err := newAgent(fake, gen, nil).Run(ctx)
	require.ErrorIs(t, err, selector.ErrNoTopics)

	assert.Zero(t, fake.DraftWrites)
	assert.Zero(t, fake.HistoryWrites)
	assert.Zero(t, gen.calls)
}

func TestRunUsesLessonImage(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedTopic(fake)
	fake.Lessons["lesson-1"] = &models.Lesson{ID: "lesson-1", ImageURL: "https://img.example/lesson.jpg"}
	gen := &fakeGenerator{title: "T", body: "B"}

	result, err := newAgent(fake, gen, &fakeImages{url: "https://img.example/search.jpg"}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/lesson.jpg", result.ImageURL)
}

func TestRunFallsBackToImageSearch(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedTopic(fake)
	fake.Lessons["lesson-1"] = &models.Lesson{ID: "lesson-1"} // no image
	gen := &fakeGenerator{title: "T", body: "B"}

	result, err := newAgent(fake, gen, &fakeImages{url: "https://img.example/search.jpg"}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/search.jpg", result.ImageURL)
}

func TestRunEnrichmentFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedTopic(fake)
	// No lesson record and a failing image search.
	gen := &fakeGenerator{title: "T", body: "B"}

	result, err := newAgent(fake, gen, &fakeImages{err: errors.New("search down")}).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.ImageURL)

	draft, err := fake.GetDraft(ctx, result.DraftID)
	require.NoError(t, err)
	assert.Empty(t, draft.ImageURL)
}
