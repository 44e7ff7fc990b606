// Package producer orchestrates one draft-generation run: select a topic,
// enrich it with an image, generate the article, persist the draft, then
// record the selection. Stages never retry inline; re-running the trigger
// is the only retry.
package producer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gmtfrombc/ai-daily-feed/internal/ai"
	"github.com/gmtfrombc/ai-daily-feed/internal/history"
	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/selector"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

// Generator produces an article title and body for a topic
type Generator interface {
	GenerateDraft(ctx context.Context, topic *models.Topic) (title, body string, err error)
}

// ImageSearcher finds a fallback image URL for a query. Optional.
type ImageSearcher interface {
	FindImage(ctx context.Context, query string) (string, error)
}

// Agent runs the draft production pipeline
type Agent struct {
	selector  *selector.Selector
	recorder  *history.Recorder
	repo      storage.Repository
	generator Generator
	images    ImageSearcher // nil when media enrichment is disabled
	log       *logger.Logger
}

// New creates a new draft producer
func New(
	sel *selector.Selector,
	recorder *history.Recorder,
	repo storage.Repository,
	generator Generator,
	images ImageSearcher,
	log *logger.Logger,
) *Agent {
	return &Agent{
		selector:  sel,
		recorder:  recorder,
		repo:      repo,
		generator: generator,
		images:    images,
		log:       log.WithComponent("producer"),
	}
}

// RunResult summarizes one production run
type RunResult struct {
	TopicID     string `json:"topic_id"`
	DraftID     string `json:"draft_id"`
	Title       string `json:"title"`
	ImageURL    string `json:"image_url,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

// Run executes one generation run. A generation failure still writes a
// placeholder draft; a draft-write failure aborts before any history is
// recorded; a history-write failure is absorbed.
func (a *Agent) Run(ctx context.Context) (*RunResult, error) {
	topic, err := a.selector.Select(ctx)
	if err != nil {
		if errors.Is(err, selector.ErrNoTopics) {
			return nil, err
		}
		return nil, fmt.Errorf("topic selection failed: %w", err)
	}

	imageURL := a.enrichImage(ctx, topic)

	title, body, genErr := a.generator.GenerateDraft(ctx, topic)
	placeholder := genErr != nil
	if placeholder {
		a.log.Warn().
			Err(genErr).
			Str("topic_id", topic.ID).
			Msg("Generation failed, writing placeholder draft")
		title = ai.PlaceholderTitle
		body = ai.PlaceholderBody
	}

	draft := &models.Draft{
		Title:    title,
		Content:  body,
		TopicID:  topic.ID,
		LessonID: topic.LessonID,
		ImageURL: imageURL,
		Status:   models.DraftStatusPending,
	}
	if err := a.repo.CreateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to persist draft for topic %s: %w", topic.ID, err)
	}

	// Draft is durable, history may now be recorded. Failure here is soft.
	if err := a.recorder.Record(ctx, topic, draft.ID); err != nil {
		a.log.Warn().
			Err(err).
			Str("topic_id", topic.ID).
			Str("draft_id", draft.ID).
			Msg("Failed to record selection history, draft stands")
	}

	a.log.Info().
		Str("topic_id", topic.ID).
		Str("draft_id", draft.ID).
		Bool("placeholder", placeholder).
		Msg("Draft produced")

	return &RunResult{
		TopicID:     topic.ID,
		DraftID:     draft.ID,
		Title:       draft.Title,
		ImageURL:    imageURL,
		Placeholder: placeholder,
	}, nil
}

// enrichImage resolves an image for the draft: the lesson's own image
// first, then an image search by topic title. Every failure is a warning,
// never fatal.
func (a *Agent) enrichImage(ctx context.Context, topic *models.Topic) string {
	lesson, err := a.repo.GetLesson(ctx, topic.LessonID)
	if err != nil {
		a.log.Warn().
			Err(err).
			Str("lesson_id", topic.LessonID).
			Msg("Lesson lookup failed, continuing without image")
	} else if lesson.ImageURL != "" {
		return lesson.ImageURL
	}

	if a.images == nil {
		return ""
	}

	url, err := a.images.FindImage(ctx, topic.Title)
	if err != nil {
		a.log.Warn().
			Err(err).
			Str("topic_id", topic.ID).
			Msg("Image search failed, continuing without image")
		return ""
	}
	return url
}
