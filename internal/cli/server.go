package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"zuynch-quiz-service/internal/app"
	"zuynch-quiz-service/internal/config"
	"zuynch-quiz-service/internal/domain"
	"zuynch-quiz-service/internal/infra/memory"
	pginfra "zuynch-quiz-service/internal/infra/postgres"
	redisinfra "zuynch-quiz-service/internal/infra/redis"
	transport "zuynch-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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
	roomTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var bank app.QuestionBank = memory.NewQuestionBank(sampleQuestions())
	if pool != nil {
		bank = pginfra.NewQuestionBank(pool, cfg.Questions.RoomSize)
	}
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, bank, questionTTL)
	}

	var rooms app.RoomRepository = memory.NewRoomStore()
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, roomTTL)
	}

	var mirror app.ScoreMirror
	var ranks app.LeaderboardReader
	if redisClient != nil {
		lb := redisinfra.NewLeaderboard(redisClient)
		mirror, ranks = lb, lb
	}

	game := app.NewGameService(rooms, bank, mirror, app.Options{
		ModeratorName:    cfg.Game.ModeratorName,
		PowerCost:        cfg.Game.PowerCost,
		FreezeDuration:   config.TTLDuration(cfg.Game.FreezeDuration, app.DefaultFreezeDuration),
		PowerUnlockScore: cfg.Game.PowerUnlockScore,
		RoomQuestionSize: cfg.Questions.RoomSize,
	})

	var crowd app.CrowdQuestionStore = memory.NewCrowdStore()
	if pool != nil {
		crowd = pginfra.NewCrowdStore(pool)
	}
	moderation := app.NewModerationService(crowd)

	wsHandler := transport.NewWSHandler(game, moderation)
	apiHandler := transport.NewAPIHandler(game, ranks, cfg.Event)

	router := mux.NewRouter()
	apiHandler.Register(router)
	router.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
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

// sampleQuestions seeds the in-memory bank when no Postgres is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:         "What is 2 + 2?",
			OptionA:      "3",
			OptionB:      "4",
			OptionC:      "5",
			OptionD:      "22",
			Correct:      domain.OptionB,
			TimeLimitSec: 15,
		},
		{
			Text:         "Which planet is closest to the sun?",
			OptionA:      "Venus",
			OptionB:      "Mars",
			OptionC:      "Mercury",
			OptionD:      "Earth",
			Correct:      domain.OptionC,
			TimeLimitSec: 20,
		},
		{
			Text:         "How many minutes are in two hours?",
			OptionA:      "100",
			OptionB:      "120",
			OptionC:      "140",
			OptionD:      "90",
			Correct:      domain.OptionB,
			TimeLimitSec: 15,
		},
	}
}
