package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmtfrombc/ai-daily-feed/internal/agent/producer"
	"github.com/gmtfrombc/ai-daily-feed/internal/agent/rotator"
	"github.com/gmtfrombc/ai-daily-feed/internal/ai"
	"github.com/gmtfrombc/ai-daily-feed/internal/config"
	"github.com/gmtfrombc/ai-daily-feed/internal/history"
	"github.com/gmtfrombc/ai-daily-feed/internal/media/unsplash"
	"github.com/gmtfrombc/ai-daily-feed/internal/models"
	"github.com/gmtfrombc/ai-daily-feed/internal/selector"
	"github.com/gmtfrombc/ai-daily-feed/internal/source/rss"
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
		Use:   "feed",
		Short: "Daily feed content pipeline",
		Long: `Operator CLI for the daily feed: generate article drafts from
lesson topics, rotate the live article, and inspect the pipeline state.`,
		PersistentPreRunE: initializeApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(rotateCmd())
	rootCmd.AddCommand(topicsCmd())
	rootCmd.AddCommand(draftsCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	switch cfg.Database.Driver {
	case "firestore":
		repo, err = fsrepo.New(cmd.Context(), fsrepo.Config{
			ProjectID:       cfg.Database.ProjectID,
			CredentialsFile: cfg.Database.CredentialsFile,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to firestore: %w", err)
		}
	default:
		repo, err = sqlite.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func newProducer() *producer.Agent {
	limiter := ratelimit.NewDefaultLimiter()
	aiClient := ai.NewClient(cfg.Anthropic, limiter, log)

	var images producer.ImageSearcher
	if cfg.Media.Enabled {
		images = unsplash.NewClient(cfg.Media.UnsplashAPIKey, limiter, log)
	}

	sel := selector.New(repo, log)
	recorder := history.New(repo, log)
	return producer.New(sel, recorder, repo, aiClient, images, log)
}

// ============ GENERATE ============

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate one article draft from the topic pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			result, err := newProducer().Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Draft %s created from topic %s\n", result.DraftID, result.TopicID)
			if result.Placeholder {
				fmt.Println("Warning: generation failed, draft contains placeholder content")
			}
			return nil
		},
	}
}

// ============ ROTATE ============

func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Advance the live article pointer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			result, err := rotator.New(repo, log).Run(ctx)
			if err != nil {
				return err
			}

			if result.Articles == 0 {
				fmt.Println("No published articles to rotate")
				return nil
			}
			if result.Rotated {
				fmt.Printf("Feed rotated: %s -> %s (%d articles)\n", result.PreviousID, result.CurrentID, result.Articles)
			} else {
				fmt.Printf("Feed unchanged, current article %s\n", result.CurrentID)
			}
			return nil
		},
	}
}

// ============ TOPICS ============

func topicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Topic pool commands",
	}
	cmd.AddCommand(topicsListCmd())
	cmd.AddCommand(topicsImportCmd())
	return cmd
}

func topicsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List topics in the pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			topics, err := repo.ListTopics(ctx, storage.TopicFilter{Limit: limit, OrderDesc: true})
			if err != nil {
				return err
			}

			if len(topics) == 0 {
				fmt.Println("No topics in the pool")
				return nil
			}
			for _, t := range topics {
				fmt.Printf("%-36s  lesson=%-12s  %s\n", t.ID, t.LessonID, t.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum topics to list")
	return cmd
}

func topicsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import topics from the configured RSS feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			importer := rss.New(cfg.Sources, repo, log)
			result, err := importer.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Imported %d topics (%d fetched, %d skipped, %d errors)\n",
				result.Imported, result.Fetched, result.Skipped, len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  error: %v\n", e)
			}
			return nil
		},
	}
}

// ============ DRAFTS ============

func draftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Draft commands",
	}
	cmd.AddCommand(draftsListCmd())
	return cmd
}

func draftsListCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filter := storage.DefaultDraftFilter()
			filter.Limit = limit
			if status != "" {
				s := models.DraftStatus(status)
				filter.Status = &s
			}

			drafts, err := repo.ListDrafts(ctx, filter)
			if err != nil {
				return err
			}

			if len(drafts) == 0 {
				fmt.Println("No drafts found")
				return nil
			}
			for _, d := range drafts {
				fmt.Printf("%-36s  %-9s  %s  %s\n",
					d.ID, d.Status, d.CreatedAt.Format("2006-01-02 15:04"), d.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, published, rejected)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum drafts to list")
	return cmd
}

// ============ HISTORY ============

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent topic selections",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			entries, err := repo.ListRecentHistory(ctx, limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No selection history")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  topic=%-36s  draft=%-36s  %s\n",
					e.UsedAt.Format("2006-01-02 15:04"), e.TopicID, e.DraftID, e.TopicTitle)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}
