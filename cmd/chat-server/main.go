package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MrNobodyNowhere/secure-chat-app/internal/auth"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/config"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/domain"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/handler"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/hub"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/middleware"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/repository"
	"github.com/MrNobodyNowhere/secure-chat-app/internal/service"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/database"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/log"
	"github.com/MrNobodyNowhere/secure-chat-app/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()
	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, &domain.User{}, &domain.Message{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	userRepo := repository.NewGormUserRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	// The registry is the single shared mutable resource of the
	// streaming core; everything that needs it gets this one instance.
	registry := hub.NewRegistry()
	presence := hub.NewPresenceBroadcaster(registry)
	dispatcher := hub.NewDispatcher(registry)

	userSvc := service.NewUserService(userRepo, tokens)
	messageSvc := service.NewMessageService(messageRepo, userRepo, dispatcher)

	authMW := middleware.NewAuthMiddleware(tokens)
	httpHandler := handler.NewHTTPHandler(userSvc, messageSvc, authMW)
	wsHandler := handler.NewWSHandler(registry, presence, tokens, cfg.WebSocket)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(log.GinMiddleware(logger))
	r.Use(gin.Recovery())

	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("chat server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("chat server stopped")
}
