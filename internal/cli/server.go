package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cormac-larkin/EduChan-sub000/internal/app"
	"github.com/cormac-larkin/EduChan-sub000/internal/config"
	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
	"github.com/cormac-larkin/EduChan-sub000/internal/infra/memory"
	pginfra "github.com/cormac-larkin/EduChan-sub000/internal/infra/postgres"
	redisinfra "github.com/cormac-larkin/EduChan-sub000/internal/infra/redis"
	transport "github.com/cormac-larkin/EduChan-sub000/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live session coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pginfra.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var rooms app.RoomDirectory = memory.NewRoomDirectory("demo")
	if pool != nil {
		rooms = pginfra.NewRoomDirectory(pool)
	}

	sessionTTL := config.TTLDuration(cfg.Live.SessionTTL, 2*time.Hour)
	var presence app.Presence
	if redisClient != nil {
		presence = redisinfra.NewPresence(redisClient, sessionTTL)
	}

	var attempts app.AttemptStore = memory.NewAttemptStore()
	if pool != nil {
		attempts = pginfra.NewAttemptStore(pool)
	}

	registry := app.NewRegistry()
	hub := app.NewHub(registry)
	live := app.NewLiveService(registry, hub, quizRepo, rooms, presence, sessionTTL)
	grading := app.NewGradingService(attempts, quizRepo)

	resolver := transport.QueryMemberResolver{}
	wsHandler := transport.NewWSHandler(live, resolver)
	attemptHandler := transport.NewAttemptHandler(grading, resolver)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	attemptHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting educhan live coordinator on :%s", finalPort)
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

// sampleQuizzes seeds demo mode when no database is configured.
func sampleQuizzes() map[int64]domain.Quiz {
	return map[int64]domain.Quiz{
		1: {
			ID:    1,
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:      6,
					Content: "Which of these are prime?",
					Answers: []domain.Answer{
						{ID: 16, Content: "7", Correct: true},
						{ID: 17, Content: "9", Correct: false},
						{ID: 18, Content: "11", Correct: true},
					},
				},
				{
					ID:      7,
					Content: "What is 2 + 2?",
					Answers: []domain.Answer{
						{ID: 19, Content: "3", Correct: false},
						{ID: 20, Content: "4", Correct: true},
					},
				},
			},
		},
	}
}
