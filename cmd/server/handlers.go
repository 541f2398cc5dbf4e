package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/himanishpuri/TempoBench/internal/catalog"
	"github.com/himanishpuri/TempoBench/internal/harness"
	"github.com/himanishpuri/TempoBench/internal/storage"
	"github.com/himanishpuri/TempoBench/internal/validate"
	"github.com/himanishpuri/TempoBench/pkg/logger"
)

// Backend is the part of the harness the server needs.
type Backend interface {
	Run(ctx context.Context, cat *catalog.Catalog) (*validate.Report, error)
	History(limit int) ([]storage.Run, error)
	Report(runID string) (*validate.Report, error)
	Trend(setName, digest string) ([]storage.TrendPoint, error)
	DeleteRun(runID string) error
}

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	backend Backend
	config  *ServerConfig
	log     harness.Logger

	mu     sync.Mutex
	status StatusResponse
	runs   sync.WaitGroup
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	CatalogPath    string
	DefaultSets    []string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(backend Backend, config *ServerConfig) *Server {
	return &Server{
		backend: backend,
		config:  config,
		log:     logger.GetLogger().With("server"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "TempoBench API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"catalog":   "GET /api/catalog",
			"runs":      "GET /api/runs",
			"startRun":  "POST /api/runs",
			"runStatus": "GET /api/runs/status",
			"getRun":    "GET /api/runs/{id}",
			"deleteRun": "DELETE /api/runs/{id}",
			"trend":     "GET /api/trend/{set}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleCatalog handles GET /api/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := harness.LoadCatalog(s.config.CatalogPath, s.config.DefaultSets)
	if err != nil {
		s.log.Errorf("Failed to load catalog: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}

	resp := CatalogResponse{Digest: cat.Digest(), Sets: []CatalogSetDTO{}}
	for _, set := range cat.Sets() {
		resp.Sets = append(resp.Sets, CatalogSetDTO{Name: set.Name, Cases: len(set.Cases)})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleListRuns handles GET /api/runs?limit=n
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.backend.History(limit)
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = runDTO(run)
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: dtos, Count: len(dtos)})
}

// handleGetRun handles GET /api/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	report, err := s.backend.Report(id)
	if err != nil {
		s.respondRunError(w, id, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reportResponse(report))
}

// handleDeleteRun handles DELETE /api/runs/{id}
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.backend.DeleteRun(id); err != nil {
		s.respondRunError(w, id, err)
		return
	}
	s.log.Infof("Deleted run %s", id)
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Run deleted successfully", "id": id})
}

func (s *Server) respondRunError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrRunNotFound) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", id))
		return
	}
	s.log.Errorf("Run %s: %v", id, err)
	s.respondError(w, http.StatusInternalServerError, "Failed to access run")
}

// handleTrend handles GET /api/trend/{set}?digest=
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	set := r.PathValue("set")
	points, err := s.backend.Trend(set, r.URL.Query().Get("digest"))
	if err != nil {
		s.log.Errorf("Failed to load trend for %s: %v", set, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve trend")
		return
	}
	if points == nil {
		points = []storage.TrendPoint{}
	}
	s.respondJSON(w, http.StatusOK, TrendResponse{Set: set, Points: points})
}

// handleStatus handles GET /api/runs/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, status)
}

// handleStartRun handles POST /api/runs. Runs execute one at a time in the
// background; a second request while one is active gets 409.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	sets := req.Sets
	if len(sets) == 0 {
		sets = s.config.DefaultSets
	}
	cat, err := harness.LoadCatalog(s.config.CatalogPath, sets)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		s.respondError(w, http.StatusConflict, "A validation run is already in progress")
		return
	}
	s.status = StatusResponse{Running: true, StartedAt: time.Now()}
	s.mu.Unlock()

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		report, err := s.backend.Run(context.Background(), cat)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.status.Running = false
		if report != nil {
			s.status.LastRunID = report.RunID
		}
		if err != nil {
			s.status.LastError = err.Error()
			s.log.Errorf("Validation run failed: %v", err)
		}
	}()

	s.respondJSON(w, http.StatusAccepted, StartRunResponse{
		Message: "Validation started",
		Sets:    cat.Len(),
		Cases:   cat.CaseCount(),
	})
}
