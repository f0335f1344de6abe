package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/api"
	job "github.com/maheshrc27/crosspost/internal/jobs"
	"github.com/maheshrc27/crosspost/internal/oauth"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/queue"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/pkg/logging"
	"github.com/maheshrc27/crosspost/pkg/utils"
	"github.com/robfig/cron"
)

type stores struct {
	posts    repository.PostRepository
	accounts repository.SocialAccountRepository
	keys     repository.ApiKeyRepository
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cipher := utils.NewTokenCipher(cfg.EncryptionKey)
	if _, err := cipher.Encrypt("probe"); err != nil {
		log.Fatalf("ENCRYPTION_KEY is not usable: %v", err)
	}
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is required")
	}

	var db *sql.DB
	st := stores{
		posts:    repository.NewMemoryPostRepository(),
		accounts: repository.NewMemorySocialAccountRepository(),
		keys:     repository.NewMemoryApiKeyRepository(),
	}
	if cfg.PostgresURI != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer closeDB(db)

		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Database is unreachable: %v", err)
		}
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		st = stores{
			posts:    repository.NewPostRepository(db),
			accounts: repository.NewSocialAccountRepository(db),
			keys:     repository.NewApiKeyRepository(db),
		}
	} else {
		slog.Warn("POSTGRES_URI is not set, using in-memory storage")
	}

	client := &http.Client{Timeout: cfg.OAuthHTTPTimeout}

	oauthService := oauth.NewService(*cfg, client)
	accountService := service.NewAccountService(*cfg, oauthService, st.accounts, cipher, client)
	apiKeyService := service.NewApiKeyService(st.keys)

	pub := publisher.NewPublisher(st.posts,
		service.NewPlatformPublishers(st.accounts, cipher, &http.Client{Timeout: cfg.Publisher.Timeout}),
		cfg.Publisher, nil)

	var storage service.MediaStorage
	if r2 := service.NewR2Service(cfg.R2); r2.Configured() {
		storage = r2
	} else {
		slog.Warn("R2 is not configured, media upload is disabled")
	}

	var enqueuer service.PublishEnqueuer
	var worker *asynq.Server
	if cfg.RedisURI != "" {
		asynqClient, err := queue.NewClient(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		defer asynqClient.Close()

		q := queue.NewQueue(asynqClient, st.posts, pub)
		enqueuer = q

		worker, err = queue.NewServer(cfg.RedisURI, cfg.Publisher.Workers)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		go func() {
			slog.Info("Starting the Asynq server...")
			if err := worker.Run(q.Mux()); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	} else {
		slog.Warn("REDIS_URI is not set, publish-now runs inline")
	}

	postService := service.NewPostService(st.posts, storage, enqueuer, pub, nil)

	scheduler := publisher.NewScheduler(pub, cfg.Publisher.Interval, nil)
	scheduler.Start(ctx)

	refreshTokenJob := job.NewTokenRefreshJob(st.accounts, accountService, nil)
	c := cron.New()
	if err := refreshTokenJob.Schedule(c, cfg.TokenRefreshSchedule); err != nil {
		log.Fatalf("Invalid TOKEN_REFRESH_SCHEDULE: %v", err)
	}
	c.Start()

	app := api.NewApp(*cfg, api.Services{
		Accounts: accountService,
		Posts:    postService,
		Keys:     apiKeyService,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port, "platforms", oauthService.ConfiguredPlatforms())

	gracefulShutdown(app, func() {
		c.Stop()
		scheduler.Stop()
		if worker != nil {
			worker.Shutdown()
		}
		cancel()
	})
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, stopBackground func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	stopBackground()

	slog.Info("Server shutdown complete.")
}
