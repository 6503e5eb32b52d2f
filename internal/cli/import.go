package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"outcome-quiz-service/internal/config"
	"outcome-quiz-service/internal/domain"
	pgstore "outcome-quiz-service/internal/infra/postgres"
	redisstore "outcome-quiz-service/internal/infra/redis"
	"outcome-quiz-service/internal/infra/sqlite"
	"outcome-quiz-service/internal/quizdoc"
)

type quizWriter interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz, raw []byte) error
}

// NewImportCmd validates quiz documents and writes them into the configured store.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <quiz.json>...",
		Short: "Import quiz documents into Postgres or SQLite",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), cfg, args)
		},
	}
}

func runImport(ctx context.Context, cfg config.Config, paths []string) error {
	var writer quizWriter
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		writer = pgstore.NewQuizStore(pool)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		writer = store
	default:
		return fmt.Errorf("no quiz store configured: set postgres.url or sqlite.path")
	}

	var cache *redisstore.QuizRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		cache = redisstore.NewQuizRepository(client, nil, 0)
	}

	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		quiz, err := quizdoc.Decode(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := writer.SaveQuiz(ctx, quiz, raw); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, quiz.ID); err != nil {
				log.Printf("invalidate cached quiz %s: %v", quiz.ID, err)
			}
		}
		log.Printf("imported quiz %s from %s", quiz.ID, path)
	}
	return nil
}
