package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/postflowhq/publisher/configs"
	"github.com/postflowhq/publisher/internal/api/handlers"
	"github.com/postflowhq/publisher/internal/api/middleware"
	job "github.com/postflowhq/publisher/internal/jobs"
	"github.com/postflowhq/publisher/internal/publisher"
	"github.com/postflowhq/publisher/internal/queue"
	"github.com/postflowhq/publisher/internal/repository"
	"github.com/postflowhq/publisher/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	postRepo := repository.NewPostRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	publishRunRepo := repository.NewPublishRunRepository(db)

	httpClient := resty.New().SetTimeout(30 * time.Second)

	registry := publisher.Registry{
		"instagram": publisher.NewInstagramPublisher(httpClient),
		"facebook":  publisher.NewFacebookPublisher(httpClient, cfg.FacebookVersion),
		"linkedin":  publisher.NewLinkedInPublisher(httpClient),
		"tiktok":    publisher.NewTiktokPublisher(httpClient),
		"youtube":   publisher.NewYoutubePublisher(httpClient),
	}

	tokenProvider := service.NewTokenProvider(*cfg)
	r2Service := service.NewR2Service(*cfg)
	publishService := service.NewPublishService(postRepo, postMediaRepo, socialAccountRepo,
		analyticsRepo, publishRunRepo, tokenProvider, r2Service, registry)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	cronHandler := handlers.NewCronHandler(publishService)
	cronGroup := app.Group("/cron", authMiddleware.CronAuth())
	cronGroup.Post("/publish-scheduled", cronHandler.PublishScheduled)
	cronGroup.Get("/publish-scheduled/run", cronHandler.PublishScheduled)

	api := app.Group("/api")
	api.Use(authMiddleware.OperatorAuth())

	post := handlers.NewPostHandler(queue.NewClient(client), postRepo)
	api.Post("/posts/publish-now", post.PublishNow)

	runs := handlers.NewRunHandler(publishRunRepo)
	api.Get("/runs", runs.ListRuns)
	api.Get("/runs/:id", runs.GetRun)

	// cron jobs
	publishJob := job.NewPublishScheduledJob(publishService)

	// queue
	queueW := queue.NewQueue(publishService)

	c := cron.New()
	c.AddFunc("@every 00h05m00s", publishJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
