package rotator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage/storagetest"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func seedArticles(fake *storagetest.Fake, ids ...string) {
	for i, id := range ids {
		fake.AddArticle(&models.PublishedArticle{ID: id, OrderIndex: i + 1})
	}
}

func setCurrent(fake *storagetest.Fake, id string) {
	fake.Config = &models.FeedConfig{ID: models.FeedConfigID, CurrentArticleID: id}
}

func TestRunAdvancesToNext(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedArticles(fake, "a", "b", "c")
	setCurrent(fake, "a")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.Rotated)
	assert.Equal(t, "b", result.CurrentID)
	assert.Equal(t, "b", fake.Config.CurrentArticleID)
}

func TestRunWrapsToFirst(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedArticles(fake, "a", "b", "c")
	setCurrent(fake, "c")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", result.CurrentID)
}

func TestRunMissingConfigStartsAtFirst(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedArticles(fake, "a", "b", "c")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", result.CurrentID)
	require.NotNil(t, fake.Config, "config must be created on first rotation")
	assert.Equal(t, "a", fake.Config.CurrentArticleID)
}

func TestRunSelfHealsStalePointer(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedArticles(fake, "a", "b", "c")
	setCurrent(fake, "deleted-article")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", result.CurrentID, "stale pointer must resolve to the first-ranked article")
}

func TestRunSkipsWriteWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	fake.AddArticle(&models.PublishedArticle{ID: "solo", OrderIndex: 1})
	setCurrent(fake, "solo")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.False(t, result.Rotated)
	assert.Equal(t, "solo", result.CurrentID)
	assert.Zero(t, fake.ConfigWrites, "an unchanged pointer must not be written")
}

func TestRunSingleArticleConverges(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	fake.AddArticle(&models.PublishedArticle{ID: "solo", OrderIndex: 1})
	setCurrent(fake, "something-else")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.True(t, result.Rotated)
	assert.Equal(t, "solo", fake.Config.CurrentArticleID)
	assert.Equal(t, 1, fake.ConfigWrites)
}

func TestRunEmptyListIsNoOp(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.False(t, result.Rotated)
	assert.Zero(t, result.Articles)
	assert.Zero(t, fake.ConfigWrites)
}

func TestRunRotationOrderIgnoresIndexGaps(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	// Sparse, non-contiguous order indices.
	fake.AddArticle(&models.PublishedArticle{ID: "x", OrderIndex: 10})
	fake.AddArticle(&models.PublishedArticle{ID: "y", OrderIndex: 40})
	fake.AddArticle(&models.PublishedArticle{ID: "z", OrderIndex: 700})
	setCurrent(fake, "y")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "z", result.CurrentID)
}

func TestRunDuplicateIndicesBreakTiesByID(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	fake.AddArticle(&models.PublishedArticle{ID: "bbb", OrderIndex: 1})
	fake.AddArticle(&models.PublishedArticle{ID: "aaa", OrderIndex: 1})
	setCurrent(fake, "aaa")

	result, err := New(fake, testLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bbb", result.CurrentID)
}

func TestRunFullCycle(t *testing.T) {
	ctx := context.Background()
	fake := storagetest.New()
	seedArticles(fake, "a", "b", "c")

	agent := New(fake, testLogger())
	var seen []string
	for i := 0; i < 6; i++ {
		result, err := agent.Run(ctx)
		require.NoError(t, err)
		seen = append(seen, result.CurrentID)
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, seen)
}

func TestRunStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("storage unreachable")

	t.Run("listing articles", func(t *testing.T) {
		fake := storagetest.New()
		fake.ListArticlesErr = boom

		_, err := New(fake, testLogger()).Run(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("loading config", func(t *testing.T) {
		fake := storagetest.New()
		seedArticles(fake, "a", "b")
		fake.GetFeedConfigErr = boom

		_, err := New(fake, testLogger()).Run(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("writing pointer", func(t *testing.T) {
		fake := storagetest.New()
		seedArticles(fake, "a", "b")
		fake.SetCurrentArticleErr = boom

		_, err := New(fake, testLogger()).Run(ctx)
		assert.ErrorIs(t, err, boom)
	})
}
