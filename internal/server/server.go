// Package server provides the HTTP API for vecgate.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/indexer"
	"github.com/hyperjump/vecgate/internal/search"
	"github.com/hyperjump/vecgate/internal/vectorstore"
)

// Server is the HTTP server for the vecgate API.
type Server struct {
	indexer *indexer.Indexer
	engine  *search.Engine
	store   vectorstore.Store
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	idx *indexer.Indexer,
	engine *search.Engine,
	store vectorstore.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		indexer: idx,
		engine:  engine,
		store:   store,
		config:  cfg,
		logger:  logger,
	}
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Post("/embed", s.handleEmbed)
	r.Post("/hf-embed", s.handleHFEmbed)
	r.Post("/query", s.handleQuery)
	r.Post("/hf-query", s.handleHFQuery)
	r.Post("/embed/document", s.handleEmbedDocument)
	r.Get("/collections/{user}", s.handleCollection)
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
