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

	"github.com/hallway-chat/hallway/internal/config"
	"github.com/hallway-chat/hallway/internal/handler"
	"github.com/hallway-chat/hallway/internal/hub"
	"github.com/hallway-chat/hallway/internal/id"
	"github.com/hallway-chat/hallway/internal/log"
	"github.com/hallway-chat/hallway/internal/service"
	"github.com/hallway-chat/hallway/internal/state"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "hallway",
	})
	logger := log.L()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting hallway")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Transport adapter
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run(ctx)

	// Session engine over explicitly constructed state
	sessions := state.New(cfg.Chat.HistoryLimit, cfg.Chat.PageSize)
	engine := service.NewEngine(sessions, wsHub, id.NewGenerator(), cfg.Chat)
	go engine.Run(ctx)

	// HTTP router: websocket endpoint + read-only snapshot API
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), log.GinMiddleware(logger))

	handler.NewWSHandler(wsHub, engine, cfg.WebSocket).RegisterRoutes(router)
	handler.NewHTTPHandler(engine, cfg.Chat).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("hallway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("hallway stopped")
}
