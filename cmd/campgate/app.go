package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nkiryanov/campgate/internal/basecamp"
	"github.com/nkiryanov/campgate/internal/handlers"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/repository"
	"github.com/nkiryanov/campgate/internal/repository/postgres"
	"github.com/nkiryanov/campgate/internal/service/authflow"
	"github.com/nkiryanov/campgate/internal/service/token"
	"github.com/nkiryanov/campgate/internal/tools"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := repository.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	flow, err := authflow.New(authflow.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		AuthBaseURL:  c.AuthBaseURL,
		StateSecret:  c.SecretKey,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating auth flow. Err: %w", err)
	}
	tokenManager, err := token.NewManager(token.Config{ReauthURL: "/oauth/start"}, storage.Tokens(), flow, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	registry := tools.NewRegistry(tokenManager, basecamp.Config{BaseURL: c.APIBaseURL, Logger: logger}, logger)

	mux := handlers.NewRouter(
		flow,
		registry,
		storage.Tokens(),
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
