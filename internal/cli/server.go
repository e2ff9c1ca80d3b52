package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"webquiz/internal/app"
	apiclient "webquiz/internal/client"
	"webquiz/internal/config"
	"webquiz/internal/domain"
	"webquiz/internal/infra/memory"
	pgstore "webquiz/internal/infra/postgres"
	redisstore "webquiz/internal/infra/redis"
	"webquiz/internal/logging"
	"webquiz/internal/results"
	transport "webquiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz attempt server",
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
	log := logging.New(slog.LevelInfo)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
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

	var api *apiclient.Client
	if cfg.API.BaseURL != "" {
		api = apiclient.New(cfg.API.BaseURL, config.TTLDuration(cfg.API.Timeout, 10*time.Second))
	}

	// Quiz source: remote API, then Postgres, then the built-in samples.
	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	switch {
	case api != nil:
		loader = api
	case pool != nil:
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var resultStore results.ResultStore = memory.NewResultStore()
	var users results.UserDirectory = memory.NewStaticUserDirectory(sampleUsers())
	switch {
	case api != nil:
		resultStore = api
		users = api
	case pool != nil:
		resultStore = pgstore.NewResultStore(pool)
	}

	attemptTTL := config.TTLDuration(cfg.Attempt.TTL, 24*time.Hour)
	var stores app.StoreProvider
	if redisClient != nil {
		stores = redisstore.NewAttemptStoreProvider(redisClient, attemptTTL)
	} else {
		stores = memory.NewAttemptStoreProvider()
	}

	submitter := results.NewSubmitter(quizRepo, resultStore, users)
	service := app.NewAttemptService(quizRepo, stores, submitter)
	wsHandler := transport.NewWSHandler(service, log)
	lbHandler := transport.NewLeaderboardHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/leaderboard", lbHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz attempt service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes keeps the service usable with no backing store configured.
func sampleQuizzes() map[string]domain.Quiz {
	ten := 10
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:           "quiz-1",
			Title:        "General knowledge",
			Code:         "DEMO1",
			TotalTimeMin: &ten,
			AllowRetry:   true,
			AllowRetake:  true,
			Questions: []domain.Question{
				{
					Prompt:  "What is 2 + 2?",
					Options: []string{"3", "4", "5"},
					Correct: []string{"4"},
					TimeSec: 20,
				},
				{
					Prompt:  "Which of these are prime numbers?",
					Options: []string{"2", "4", "7", "9"},
					Correct: []string{"2", "7"},
					TimeSec: 45,
				},
			},
		},
	}
}

func sampleUsers() map[string]domain.User {
	return map[string]domain.User{
		"u1": {ID: "u1", Username: "alice"},
		"u2": {ID: "u2", Username: "bob"},
	}
}
