package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"quiz-monitor-service/internal/canvas"
	"quiz-monitor-service/internal/config"
	"quiz-monitor-service/internal/db"
	"quiz-monitor-service/internal/event"
	"quiz-monitor-service/internal/handlers"
	"quiz-monitor-service/internal/lti"
	"quiz-monitor-service/internal/poller"
	"quiz-monitor-service/internal/repository"
	"quiz-monitor-service/internal/service"
	"quiz-monitor-service/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	cfg := config.Load()

	database, err := db.Connect(cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Disconnect()

	// RabbitMQ fan-out is optional; without it only this instance's live
	// connections get pushes.
	var publisher *event.Publisher
	if cfg.RabbitMQ.URI != "" && cfg.RabbitMQ.Exchange != "" {
		publisher, err = event.NewPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, result events will not be published")
	}

	sessionRepo := repository.NewSessionRepository(database)
	resultRepo := repository.NewResultRepository(database)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sessionRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create session indexes: %v", err)
	}
	if err := resultRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create result indexes: %v", err)
	}
	indexCancel()

	authenticator := lti.NewAuthenticator(cfg.LTI.ConsumerKey, cfg.LTI.ConsumerSecret)
	sessionService := service.NewSessionService(sessionRepo, cfg.LTI.SessionTTL)
	resultService := service.NewResultService(resultRepo)

	hub := ws.NewHub()
	wsHandler := ws.NewHandler(hub, cfg.Server.AllowedOrigins)

	canvasClient := canvas.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.AccessToken, cfg.Canvas.RequestTimeout)

	var events service.EventSink
	if publisher != nil {
		events = publisher
	}
	monitorService := service.NewMonitorService(resultRepo, canvasClient, hub, events)

	quizPoller := poller.New(canvasClient, monitorService, cfg.Canvas.MonitoredQuizzes,
		cfg.Canvas.PollInterval, cfg.Canvas.RequestTimeout)

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go quizPoller.Run(pollCtx)

	ltiHandler := handlers.NewLTIHandler(authenticator, sessionService, cfg.Server.FrontendURL)
	resultHandler := handlers.NewResultHandler(resultService)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.POST("/lti/launch", ltiHandler.HandleLaunch)
	r.POST("/lti/validate", ltiHandler.ValidateToken)

	api := r.Group("/api")
	{
		api.GET("/results/:userId", resultHandler.GetStudentResults)
		api.GET("/results/:userId/latest", resultHandler.GetLatestResult)
		api.GET("/stats/:userId", resultHandler.GetStudentStats)
	}

	r.GET("/ws", wsHandler.Serve)

	log.Printf("Quiz monitor listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
