package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	demomiddleware "github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-body/pkg/api"
	"github.com/tendant/simple-body/pkg/blobstore"
	"github.com/tendant/simple-body/pkg/config"
)

func main() {
	var configFile = flag.String("config", "", "Path to a yaml, json or env configuration file")
	var usage = flag.Bool("usage", false, "Print the environment variables the server reads and exit")
	flag.Parse()

	if *usage {
		fmt.Println(config.Usage())
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := cfg.BuildStore(ctx)
	if err != nil {
		slog.Error("Failed to build object store", "storage_url", cfg.StorageURL, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	server := NewHTTPServer(store, cfg)
	routes, err := server.Routes()
	if err != nil {
		slog.Error("Failed to set up routes", "err", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: routes,
	}

	go func() {
		slog.Info("Body server starting", "port", cfg.Port, "env", cfg.Environment, "storage_url", cfg.StorageURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}

	slog.Info("Server exiting")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// HTTPServer exposes stored and synthetic bodies over HTTP
type HTTPServer struct {
	store  blobstore.Store
	config *config.Config
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(store blobstore.Store, cfg *config.Config) *HTTPServer {
	return &HTTPServer{
		store:  store,
		config: cfg,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)

	var apiKeyMiddleware func(http.Handler) http.Handler
	if s.config.APIKeySHA256 != "" {
		mw, err := demomiddleware.ApiKeyMiddleware(demomiddleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"key1": s.config.APIKeySHA256,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize API key middleware: %w", err)
		}
		apiKeyMiddleware = mw
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if apiKeyMiddleware != nil {
				r.Use(apiKeyMiddleware)
			}
			r.Mount("/bodies", api.NewBodyHandler(s.store).Routes())
		})
		r.Mount("/synthetic", api.NewSyntheticHandler(s.config.MaxSyntheticSize).Routes())
	})

	return r, nil
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":      "healthy",
		"environment": s.config.Environment,
	})
}
