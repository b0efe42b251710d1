package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/edunova/platform/internal/app"
	"github.com/edunova/platform/internal/config"
	"github.com/edunova/platform/internal/database"
	"github.com/edunova/platform/internal/logging"
	"github.com/edunova/platform/internal/notify"
	"github.com/edunova/platform/internal/orientation"
	"github.com/edunova/platform/internal/recommend"
	"github.com/edunova/platform/internal/server"
	"github.com/edunova/platform/internal/tasks"
	"github.com/edunova/platform/internal/trigger"
	"github.com/edunova/platform/internal/votes"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupRedis returns nil when no Redis URL is configured; the task queue and
// notification fan-out then run in degraded inline mode.
func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set, task queue runs inline")
		return nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, appSvc *app.Service, queue *tasks.Queue) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		appSvc.StopSweep()
		queue.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	userRepo := database.NewUserRepo(pool)
	sponsorRepo := database.NewSponsorRepo(pool)
	projectRepo := database.NewProjectRepo(pool)
	voteRepo := database.NewVoteRepo(pool)
	scoreStore := database.NewScoreStore(pool)
	recRepo := database.NewRecommendationRepo(pool)
	orientationRepo := database.NewOrientationRepo(pool)
	notificationRepo := database.NewNotificationRepo(pool)
	predictionRepo := database.NewPredictionLogRepo(pool)

	notifier := notify.New(notificationRepo, redisClient, cfg.NotifyChannel, clock)
	queue := tasks.New(redisClient, cfg.QueueKey)
	dispatcher := trigger.NewDispatcher(queue, scoreStore)

	ledger := votes.NewLedger(voteRepo, projectRepo, notifier, dispatcher, clock)
	generator := recommend.NewGenerator(projectRepo, recRepo, sponsorRepo, userRepo, notifier, clock)
	balancer := orientation.NewBalancer(orientationRepo, userRepo, notifier, clock)

	appSvc := app.New(app.Deps{
		Users:         userRepo,
		Projects:      projectRepo,
		Votes:         voteRepo,
		Scores:        scoreStore,
		Recs:          recRepo,
		Notifications: notificationRepo,
		Prediction:    predictionRepo,
		Ledger:        ledger,
		Generator:     generator,
		Balancer:      balancer,
		Dispatcher:    dispatcher,
		Clock:         clock,
		SweepInterval: cfg.SweepInterval,
	})

	appSvc.RegisterHandlers(queue)
	queue.Start(cfg.WorkerCount)
	appSvc.StartSweep(queue)

	srv := server.NewServer(cfg, appSvc, pool, redisClient)

	done := runGracefulShutdown(srv, appSvc, queue)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
