package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/gmtfrombc/ai-daily-feed/internal/agent/producer"
	"github.com/gmtfrombc/ai-daily-feed/internal/agent/rotator"
	"github.com/gmtfrombc/ai-daily-feed/internal/ai"
	"github.com/gmtfrombc/ai-daily-feed/internal/config"
	"github.com/gmtfrombc/ai-daily-feed/internal/history"
	"github.com/gmtfrombc/ai-daily-feed/internal/media/unsplash"
	"github.com/gmtfrombc/ai-daily-feed/internal/selector"
	"github.com/gmtfrombc/ai-daily-feed/internal/server"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage"
	fsrepo "github.com/gmtfrombc/ai-daily-feed/internal/storage/firestore"
	"github.com/gmtfrombc/ai-daily-feed/internal/storage/sqlite"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
	"github.com/gmtfrombc/ai-daily-feed/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "feed-scheduler",
		Short: "Background scheduler for the daily feed",
		Long: `Runs the daily feed rotation on a schedule and serves the
on-demand draft-generation trigger. Run as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting daily feed scheduler")

	repo, err = newRepository(context.Background())
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Collaborators
	limiter := ratelimit.NewMultiLimiter()
	limiter.AddLimiter(ratelimit.LimiterAnthropic, float64(cfg.RateLimit.AnthropicRequestsPerMinute)/60.0, 2)
	limiter.AddLimiter(ratelimit.LimiterUnsplash, float64(cfg.RateLimit.UnsplashRequestsPerHour)/3600.0, 2)

	aiClient := ai.NewClient(cfg.Anthropic, limiter, log)

	var images producer.ImageSearcher
	if cfg.Media.Enabled {
		images = unsplash.NewClient(cfg.Media.UnsplashAPIKey, limiter, log)
	}

	sel := selector.New(repo, log)
	recorder := history.New(repo, log)
	producerAgent := producer.New(sel, recorder, repo, aiClient, images, log)
	rotatorAgent := rotator.New(repo, log)

	// Trigger server
	srv := server.New(cfg.Server, producerAgent, rotatorAgent, log)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("Trigger server failed")
		}
	}()

	// Cron scheduler
	c := cron.New(cron.WithLogger(cronLogger{log}))

	_, err = c.AddFunc(cfg.Scheduler.RotateCron, func() {
		ctx := context.Background()
		log.Info().Msg("Running scheduled feed rotation")

		result, err := rotatorAgent.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled rotation failed")
			return
		}

		log.Info().
			Str("current", result.CurrentID).
			Bool("rotated", result.Rotated).
			Msg("Scheduled rotation completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule rotation job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.RotateCron).Msg("Rotation job scheduled")

	if cfg.Scheduler.GenerateEnabled {
		_, err = c.AddFunc(cfg.Scheduler.GenerateCron, func() {
			ctx := context.Background()
			log.Info().Msg("Running scheduled draft generation")

			result, err := producerAgent.Run(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Scheduled generation failed")
				return
			}

			log.Info().
				Str("draft_id", result.DraftID).
				Bool("placeholder", result.Placeholder).
				Msg("Scheduled generation completed")
		})
		if err != nil {
			return fmt.Errorf("failed to schedule generation job: %w", err)
		}
		log.Info().Str("cron", cfg.Scheduler.GenerateCron).Msg("Generation job scheduled")
	}

	c.Start()
	log.Info().Msg("Scheduler started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Trigger server shutdown failed")
	}

	return nil
}

// newRepository opens the configured storage backend
func newRepository(ctx context.Context) (storage.Repository, error) {
	switch cfg.Database.Driver {
	case "firestore":
		log.Info().Str("project", cfg.Database.ProjectID).Msg("Using Firestore storage")
		repo, err := fsrepo.New(ctx, fsrepo.Config{
			ProjectID:       cfg.Database.ProjectID,
			CredentialsFile: cfg.Database.CredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to firestore: %w", err)
		}
		return repo, nil
	default:
		log.Info().Str("dsn", cfg.Database.DSN).Msg("Using SQLite storage")
		repo, err := sqlite.New(cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repo, nil
	}
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}
