// Package rest exposes the normalized game records and crawl controls
// over HTTP.
package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, records RecordStore, crawls CrawlController, health HealthChecker, directory Directory) *Server {
	handler := NewHandler(records, crawls, health, directory)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Game records
	api.HandleFunc("/games", handler.GetGamesByDate).Methods("GET")
	api.HandleFunc("/games/{date}/{team}", handler.GetGame).Methods("GET")

	// Seasons
	api.HandleFunc("/seasons", handler.GetSeasons).Methods("GET")
	api.HandleFunc("/seasons/{season}/games", handler.GetSeasonGames).Methods("GET")

	// Directory lookups
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/players/search", handler.SearchPlayers).Methods("GET")

	// Crawl operations
	api.HandleFunc("/crawl", handler.TriggerCrawl).Methods("POST")
	api.HandleFunc("/crawl/status", handler.GetCrawlStatus).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
