package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/gmtfrombc/ai-daily-feed/internal/config"
	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
	"github.com/gmtfrombc/ai-daily-feed/pkg/ratelimit"
)

// ErrEmptyCompletion is returned when the model call succeeds but carries
// no text content. Callers treat it like any other generation failure.
var ErrEmptyCompletion = errors.New("completion contained no text")

// Placeholder values written into a draft when generation fails, so the
// failure shows up in the normal drafts list instead of only in logs.
const (
	PlaceholderTitle = "[generation failed]"
	PlaceholderBody  = "Content generation failed for this topic. The draft row was kept so the failure is visible; regenerate it before review."
)

// Client wraps the Anthropic SDK client
type Client struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewClient creates a new Anthropic client
func NewClient(cfg config.AnthropicConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	return &Client{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
		log:         log.WithComponent("ai"),
	}
}

// Complete sends a system/user message pair to Claude and returns the text
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterAnthropic); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	c.log.Debug().
		Str("model", c.model).
		Int("max_tokens", c.maxTokens).
		Msg("Sending request to Claude")

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(c.temperature),
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(userMessage),
				},
			},
		},
	})

	if err != nil {
		c.log.Error().Err(err).Msg("Claude API error")
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var response string
	for _, block := range message.Content {
		textBlock := block.AsText()
		if textBlock.Text != "" {
			response += textBlock.Text
		}
	}

	if strings.TrimSpace(response) == "" {
		return "", ErrEmptyCompletion
	}

	c.log.Debug().
		Int("input_tokens", int(message.Usage.InputTokens)).
		Int("output_tokens", int(message.Usage.OutputTokens)).
		Msg("Received Claude response")

	return response, nil
}

// GenerateDraft produces an article title and body for a topic. The model
// is asked to put the title on the first line; everything after the first
// blank line is the body.
func (c *Client) GenerateDraft(ctx context.Context, topic *models.Topic) (string, string, error) {
	user := fmt.Sprintf(DraftUserPrompt, topic.Title, topic.Content)

	completion, err := c.Complete(ctx, DraftSystemPrompt, user)
	if err != nil {
		return "", "", err
	}

	title, body := SplitTitleBody(completion)
	if title == "" {
		title = topic.Title
	}
	if body == "" {
		return "", "", ErrEmptyCompletion
	}

	return title, body, nil
}

// SplitTitleBody separates the first line of a completion from the rest.
func SplitTitleBody(completion string) (string, string) {
	text := strings.TrimSpace(completion)
	title, body, found := strings.Cut(text, "\n")
	if !found {
		return "", text
	}
	title = strings.TrimSpace(strings.TrimPrefix(title, "# "))
	return title, strings.TrimSpace(body)
}
