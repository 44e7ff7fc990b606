// Package rss imports topics into the pool from RSS feeds. The pool is
// otherwise owned by the external curriculum workflow; the importer is an
// operator convenience for seeding it.
package rss

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/gmtfrombc/ai-daily-feed/internal/config"
	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

// Importer pulls feed items into the topic pool
type Importer struct {
	feeds  []config.RSSFeed
	repo   storage.Repository
	parser *gofeed.Parser
	log    *logger.Logger
}

// New creates a new RSS topic importer
func New(cfg config.SourcesConfig, repo storage.Repository, log *logger.Logger) *Importer {
	return &Importer{
		feeds:  cfg.RSS.Feeds,
		repo:   repo,
		parser: gofeed.NewParser(),
		log:    log.WithComponent("rss"),
	}
}

// ImportResult summarizes one import run
type ImportResult struct {
	Fetched  int
	Imported int
	Skipped  int
	Errors   []error
}

// Run fetches every configured feed and creates a topic per new item,
// deduplicating on a hash of feed name + item link.
func (i *Importer) Run(ctx context.Context) (*ImportResult, error) {
	result := &ImportResult{}

	for _, feed := range i.feeds {
		log := i.log.WithFeed(feed.Name)

		parsed, err := i.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to parse feed %s: %w", feed.Name, err))
			continue
		}

		for _, item := range parsed.Items {
			result.Fetched++

			externalID := ExternalID(feed.Name, item.Link)
			if _, err := i.repo.GetTopicByExternalID(ctx, externalID); err == nil {
				result.Skipped++
				continue
			} else if !errors.Is(err, storage.ErrNotFound) {
				result.Errors = append(result.Errors, err)
				continue
			}

			topic := &models.Topic{
				ExternalID: externalID,
				Title:      cleanText(item.Title),
				Content:    cleanText(item.Description),
				LessonID:   feed.LessonID,
			}
			if topic.Title == "" || topic.Content == "" {
				result.Skipped++
				continue
			}

			if err := i.repo.CreateTopic(ctx, topic); err != nil {
				log.Warn().Err(err).Str("title", topic.Title).Msg("Failed to import topic")
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Imported++
		}

		log.Info().
			Int("items", len(parsed.Items)).
			Msg("Feed processed")
	}

	i.log.Info().
		Int("fetched", result.Fetched).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("Topic import completed")

	return result, nil
}

// ExternalID creates a stable id for a feed item from its origin and link
func ExternalID(feedName, link string) string {
	hash := sha256.Sum256([]byte(feedName + ":" + link))
	return fmt.Sprintf("%x", hash[:16])
}

// cleanText removes HTML tags and collapses whitespace
func cleanText(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			result.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
