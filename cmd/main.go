package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/config"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/handlers"
	"github.com/a2a-routing/console/internal/logger"
	"github.com/a2a-routing/console/internal/metrics"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/router"
)

func main() {

	// Load application configuration
	cfg := config.New()
	logger.Init(cfg.LogLevel)
	logger.Info("Configuration loaded successfully")

	metrics.Init()

	// Load the role policy
	policy, err := access.LoadPolicy(cfg.RolePolicyFile)
	if err != nil {
		logger.Fatalf("Failed to load role policy: %v", err)
	}
	if cfg.RolePolicyFile != "" {
		logger.WithField("file", cfg.RolePolicyFile).Info("Role policy loaded")
	}

	// Initialize backend client
	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, backend.WithObserver(metrics.Backend{}))
	logger.WithField("backend_url", cfg.BackendURL).Info("Backend client initialized")

	// Initialize console session state
	store := console.NewStore(cfg.SessionIdleTTL, console.PageOptions{
		ToastTTL:   cfg.ToastTTL,
		MinLoading: cfg.DownloadMinLoading,
		Location:   cfg.MustLocation(),
		OnToast:    metrics.Toast,
	})
	sessions := middleware.NewSessions(cfg.SessionSecret, cfg.SessionCookie, 0)
	logger.Info("Console session store initialized")

	// Initialize handlers
	r := router.Setup(router.Deps{
		Resolver:           access.NewResolver(client),
		Policy:             policy,
		Sessions:           sessions,
		AllowedOrigin:      cfg.AllowedOrigin,
		LoginRatePerSecond: cfg.LoginRatePerSecond,
		LoginRateBurst:     cfg.LoginRateBurst,

		Health:        handlers.NewHealthHandler(store, cfg.BackendURL),
		Auth:          handlers.NewAuthHandler(client, store, sessions, policy),
		Users:         handlers.NewUsersHandler(client, store, policy),
		Agents:        handlers.NewAgentsHandler(client, store),
		MCP:           handlers.NewMCPHandler(client, store),
		Market:        handlers.NewMarketHandler(client, store),
		Toasts:        handlers.NewToastHandler(store),
		Conversations: handlers.NewConversationLogHandler(client, store),
		Platform:      handlers.NewPlatformLogHandler(client, store),
		OwnLogs:       handlers.NewOwnLogHandler(client, store),
	})
	logger.Info("Handlers initialized")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutting down server gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}

		store.Close()
		logger.Info("Console sessions closed")
	}()

	// Start server
	logger.Infof("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Failed to start server: %v", err)
	}
	<-stopped
}
