package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/courtside/internal/statsapi"
	"github.com/fortuna/courtside/internal/store"
)

// RecordStore is the slice of the record repository the handlers need.
type RecordStore interface {
	GetByDate(ctx context.Context, date time.Time) ([]*store.RecordRow, error)
	GetByDateAndTeam(ctx context.Context, date time.Time, team string) (*store.RecordRow, error)
	GetBySeason(ctx context.Context, season string) ([]*store.RecordRow, error)
	Seasons(ctx context.Context) ([]string, error)
	CountBySeason(ctx context.Context) (map[string]int, error)
}

// CrawlController triggers and reports on the background crawl.
type CrawlController interface {
	TriggerManual() error
	Status() map[string]interface{}
}

// HealthChecker reports backing-store health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Directory resolves teams and players against the stats provider.
type Directory interface {
	Teams(ctx context.Context) ([]statsapi.Team, error)
	FindPlayer(ctx context.Context, name string) (*statsapi.Player, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	records   RecordStore
	crawls    CrawlController
	health    HealthChecker
	directory Directory
}

// NewHandler creates a new handler. crawls, health and directory may
// be nil when the server runs without a scheduler, database or stats
// provider.
func NewHandler(records RecordStore, crawls CrawlController, health HealthChecker, directory Directory) *Handler {
	return &Handler{
		records:   records,
		crawls:    crawls,
		health:    health,
		directory: directory,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "Database unreachable", err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"service": "courtside",
		"version": "1.0.0",
	})
}

// GetGamesByDate returns all game records for a specific date
func (h *Handler) GetGamesByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	rows, err := h.records.GetByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// GetGame returns a single team's record for one game
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	row, err := h.records.GetByDateAndTeam(r.Context(), date, vars["team"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Game not found", err)
		return
	}

	// Expand the JSONB blobs so clients see the full stat line.
	rec, err := row.ToGameRecord()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to decode record", err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// GetSeasons lists seasons with record counts
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.records.Seasons(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch seasons", err)
		return
	}

	counts, err := h.records.CountBySeason(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to count records", err)
		return
	}

	type seasonSummary struct {
		Season  string `json:"season"`
		Records int    `json:"records"`
	}

	summaries := make([]seasonSummary, 0, len(seasons))
	for _, s := range seasons {
		summaries = append(summaries, seasonSummary{Season: s, Records: counts[s]})
	}

	respondJSON(w, http.StatusOK, summaries)
}

// GetSeasonGames returns all game records for a season
func (h *Handler) GetSeasonGames(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]

	rows, err := h.records.GetBySeason(r.Context(), season)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch season games", err)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// TriggerCrawl starts a manual crawl run
func (h *Handler) TriggerCrawl(w http.ResponseWriter, r *http.Request) {
	if h.crawls == nil {
		respondError(w, http.StatusServiceUnavailable, "Crawl scheduler not running", nil)
		return
	}

	if err := h.crawls.TriggerManual(); err != nil {
		respondError(w, http.StatusConflict, "Failed to trigger crawl", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "Crawl triggered",
	})
}

// GetCrawlStatus reports the scheduler's current state
func (h *Handler) GetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	if h.crawls == nil {
		respondError(w, http.StatusServiceUnavailable, "Crawl scheduler not running", nil)
		return
	}

	respondJSON(w, http.StatusOK, h.crawls.Status())
}

// GetTeams returns the league team directory
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		respondError(w, http.StatusServiceUnavailable, "Stats provider not configured", nil)
		return
	}

	teams, err := h.directory.Teams(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch teams", err)
		return
	}

	respondJSON(w, http.StatusOK, teams)
}

// SearchPlayers resolves a player by name
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		respondError(w, http.StatusServiceUnavailable, "Stats provider not configured", nil)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "Missing name parameter", nil)
		return
	}

	player, err := h.directory.FindPlayer(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusNotFound, "Player not found", err)
		return
	}

	respondJSON(w, http.StatusOK, player)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
