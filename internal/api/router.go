// Package api assembles the HTTP surface: middleware, handlers and routes.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/api/handlers"
	"github.com/maheshrc27/crosspost/internal/api/middleware"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const bodyLimit = 300 * 1024 * 1024

type Services struct {
	Accounts service.AccountService
	Posts    service.PostService
	Keys     service.ApiKeyService
}

func NewApp(cfg config.Config, s Services) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    bodyLimit,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL(),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg, s.Keys).AuthMiddleware()

	platform := handlers.NewPlatformHandler(s.Accounts, cfg)
	app.Get("/auth/:platform", authMiddleware, platform.AddSocialAccount)
	app.Get("/api/social/oauth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware)

	api.Get("/platforms", platform.ListPlatforms)
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Delete("/accounts/:id", platform.DeleteSocialAccount)

	post := handlers.NewPostHandler(s.Posts)
	api.Post("/posts", post.CreatePost)
	api.Post("/posts/validate", post.ValidatePost)
	api.Post("/posts/media", post.UploadMedia)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Post("/posts/:id/schedule", post.SchedulePost)
	api.Post("/posts/:id/publish", post.PublishNow)
	api.Delete("/posts/:id", post.RemovePost)

	if s.Keys != nil {
		apiKeys := handlers.NewApiKeyHandler(s.Keys)
		api.Post("/keys", apiKeys.CreateApiKey)
		api.Get("/keys", apiKeys.ListKeys)
		api.Delete("/keys/:id", apiKeys.RemoveAPIKey)
	}

	return app
}
