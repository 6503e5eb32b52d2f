package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"outcome-quiz-service/internal/app"
	"outcome-quiz-service/internal/config"
	"outcome-quiz-service/internal/domain"
	"outcome-quiz-service/internal/engine"
	"outcome-quiz-service/internal/infra/memory"
	pgstore "outcome-quiz-service/internal/infra/postgres"
	redisstore "outcome-quiz-service/internal/infra/redis"
	"outcome-quiz-service/internal/infra/sqlite"
	"outcome-quiz-service/internal/telemetry"
	transport "outcome-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends groups the collaborators the quiz service runs on.
type backends struct {
	loader   memory.QuizLoader
	plays    app.PlayCounter
	quizzes  app.QuizRepository
	sessions app.SessionRepository
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	resolver := engine.Resolver{LegacyCodeLength: cfg.Resolver.LegacyCodeLength}
	service := app.NewQuizService(b.sessions, b.quizzes, b.plays, resolver)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewMux(service),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildBackends picks the quiz source (Postgres, then SQLite, then built-in samples),
// the play counter next to it, and Redis or memory for caching and sessions.
func buildBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		store := pgstore.NewQuizStore(pool)
		b.loader, b.plays = store, store
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { store.Close() })
		b.loader, b.plays = store, store
	default:
		log.Printf("no quiz store configured, serving built-in sample quizzes")
		b.loader = memory.NewStaticQuizLoader(sampleQuizzes()...)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { client.Close() })
		b.quizzes = redisstore.NewQuizRepository(client, b.loader, quizTTL)
		b.sessions = redisstore.NewSessionStore(client, sessionTTL)
		if b.plays == nil {
			b.plays = redisstore.NewPlayCounter(client)
		}
	} else {
		b.quizzes = memory.NewQuizRepository(b.loader, quizTTL)
		b.sessions = memory.NewSessionStore()
	}
	if b.plays == nil {
		b.plays = memory.NewPlayCounter()
	}
	return b, nil
}

// sampleQuizzes provides demo content; import documents into Postgres or SQLite in production.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:    "coffee",
			Title: "How much do you need coffee?",
			Mode:  domain.ModeNumeric,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Order:  1,
					Prompt: "Cups before noon?",
					Options: []domain.Option{
						{ID: "none", Text: "None", Score: 0},
						{ID: "one", Text: "One", Score: 5},
						{ID: "many", Text: "Lost count", Score: 10},
					},
				},
				{
					ID:     "q2",
					Order:  2,
					Prompt: "Meetings before the first cup?",
					Options: []domain.Option{
						{ID: "fine", Text: "Fine", Score: 0},
						{ID: "never", Text: "Never again", Score: 10},
					},
				},
			},
			Results: []domain.Result{
				{ID: "decaf", Title: "Decaf", MinScore: 0, MaxScore: 5},
				{ID: "regular", Title: "Regular", MinScore: 6, MaxScore: 14},
				{ID: "espresso", Title: "Espresso IV", MinScore: 15, MaxScore: 20},
			},
		},
		{
			ID:        "energy",
			Title:     "Where do you get your energy?",
			Mode:      domain.ModeDimensional,
			AxisCount: 2,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Order:  1,
					Prompt: "Friday night?",
					Options: []domain.Option{
						{ID: "party", Text: "Party", TypeCode: "E"},
						{ID: "book", Text: "A book", TypeCode: "I"},
					},
				},
				{
					ID:     "q2",
					Order:  2,
					Prompt: "Holiday plans?",
					Options: []domain.Option{
						{ID: "plan", Text: "Itinerary", TypeCode: "J"},
						{ID: "wing", Text: "Wing it", TypeCode: "P"},
					},
				},
			},
			Results: []domain.Result{
				{ID: "ej", Title: "Organizer", TypeCode: "EJ"},
				{ID: "ep", Title: "Spark", TypeCode: "EP"},
				{ID: "ij", Title: "Architect", TypeCode: "IJ"},
				{ID: "ip", Title: "Dreamer", TypeCode: "IP"},
			},
		},
	}
}
