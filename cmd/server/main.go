package main

// @title           Notify Gateway API
// @version         1.0
// @description     Real-time WebSocket notification gateway
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a service JWT.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notify-gateway/internal/api/routes"
	"notify-gateway/internal/auth"
	"notify-gateway/internal/config"
	"notify-gateway/internal/database"
	"notify-gateway/internal/events"
	"notify-gateway/internal/services"
	"notify-gateway/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting notification gateway")

	hubOpts := websocket.Options{
		AuthTimeout:    cfg.WebSocket.AuthTimeout,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		SendBuffer:     cfg.WebSocket.SendBuffer,
	}

	// Redis is optional; without it the gateway runs single-instance with
	// no presence mirror.
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		hubOpts.Redis = redisClient
		hubOpts.Presence = services.NewPresenceService(redisClient)
	}

	// Token verification delegates to the identity service when a verify
	// URL is configured, otherwise validates JWTs locally.
	var verifier auth.TokenVerifier
	if cfg.Auth.VerifyURL != "" {
		verifier = auth.NewHTTPVerifier(cfg.Auth.VerifyURL)
	} else {
		verifier = auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	}

	hub := websocket.NewHub(websocket.NewRegistry(), verifier, hubOpts)
	go hub.Run()

	router := routes.NewRouter(hub, cfg.Auth.ServiceSecret, cfg.Server.AllowedOrigins)
	router.SetupRoutes()

	// Kafka ingestion is optional; the internal HTTP API always works.
	var consumer *events.Consumer
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err = events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, hub)
		if err != nil {
			slog.Error("Failed to create Kafka consumer", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := consumer.Run(consumerCtx); err != nil {
				slog.Error("Kafka consumer stopped", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	consumerCancel()
	if consumer != nil {
		consumer.Close()
	}
	hub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
