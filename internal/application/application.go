package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xuesi9527/async-http-client/config"
	"github.com/xuesi9527/async-http-client/internal/api"
	"github.com/xuesi9527/async-http-client/internal/settings"
	"github.com/xuesi9527/async-http-client/internal/watch"
)

// App encapsulates the resolved configuration, the admin HTTP server and the
// optional file watcher.
type App struct {
	config  *config.Config
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
	watcher *watch.Watcher
}

// NewConfig builds the layered configuration described by s.
func NewConfig(s settings.Settings, logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.New(
		config.WithSearchPaths(s.PropertiesDirs...),
		config.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	return cfg, nil
}

// New initializes the application with all dependencies from the provided settings.
func New(s settings.Settings, cfg *config.Config, logger *zap.Logger) (*App, error) {
	handler := api.NewHandler(cfg)
	router := api.NewRouter(handler, logger,
		api.WithLogging(s.EnableRequestLogging),
		api.WithRateLimit(s.RateLimitRPS, s.RateLimitBurst),
	)

	app := &App{
		config:  cfg,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(s, router),
	}

	if s.Watch {
		w, err := newWatcher(cfg, s.PropertiesDirs, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start properties watcher: %w", err)
		}
		app.watcher = w
	}

	return app, nil
}

// NewServer creates and configures an HTTP server from the provided settings.
func NewServer(s settings.Settings, handler http.Handler) *http.Server {
	addr := s.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: s.ReadHeaderTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

func newWatcher(cfg *config.Config, dirs []string, logger *zap.Logger) (*watch.Watcher, error) {
	w, err := watch.New(cfg, config.CustomResource, watch.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	watched := 0
	for _, dir := range dirs {
		if err := w.Watch(dir); err != nil {
			logger.Warn("skipping unwatchable properties directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = w.Stop()
		return nil, errors.New("no properties directory could be watched")
	}
	return w, nil
}

// Start starts the watcher and the HTTP server in a goroutine.
func (a *App) Start() error {
	if a.watcher != nil {
		a.watcher.Start()
	}
	go func() {
		a.logger.Info("admin server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the watcher and gracefully shuts the server down.
func (a *App) Shutdown(ctx context.Context) error {
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
	return a.server.Shutdown(ctx)
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Config returns the resolved configuration.
func (a *App) Config() *config.Config {
	return a.config
}
