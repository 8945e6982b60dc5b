package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvccc/zanmei/internal/logging"
	"github.com/mvccc/zanmei/internal/ocr"
)

// Server runs OCR extraction jobs and reports progress over WebSocket.
type Server struct {
	client   *ocr.Client
	cacheDir string // empty disables the result cache
	store    *JobStore
	hub      *Hub
}

// NewServer creates a server using client for extraction. cacheDir, when
// non-empty, enables the OCR result cache.
func NewServer(client *ocr.Client, cacheDir string) *Server {
	s := &Server{
		client:   client,
		cacheDir: cacheDir,
		store:    NewJobStore(),
		hub:      NewHub(),
	}
	go s.hub.Run()
	return s
}

// Handler returns the HTTP routes. The WebSocket endpoint bypasses the
// logging middleware because its response writer must stay hijackable.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", s.handleJobs)
	mux.HandleFunc("/jobs/", s.handleJobByID)
	mux.HandleFunc("/healthz", s.handleHealth)

	root := http.NewServeMux()
	root.Handle("/", logging.CombinedMiddleware(mux))
	root.HandleFunc("/ws", s.handleWebSocket)
	return root
}

// ListenAndServe serves on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok", "model": s.client.Model()})
}

// handleJobs handles POST /jobs (create) and GET /jobs (list).
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createJob(w, r)
	case http.MethodGet:
		respond(w, http.StatusOK, s.store.List())
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST and GET are allowed")
	}
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	if req.ImageDir == "" || req.OutputDir == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PARAMS", "image_dir and output_dir are required")
		return
	}
	format := ocr.Format(req.Format)
	if format == "" {
		format = ocr.FormatPure
	}
	switch format {
	case ocr.FormatPure, ocr.FormatMarkdown, ocr.FormatJSON, ocr.FormatChinese:
	default:
		respondError(w, http.StatusBadRequest, "INVALID_FORMAT", fmt.Sprintf("unknown format %q", req.Format))
		return
	}
	selected, err := ocr.ParseSelection(req.Hymns)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SELECTION", err.Error())
		return
	}

	job := s.store.Create(req)
	go s.runJob(job, format, selected)

	respond(w, http.StatusCreated, job)
}

// runJob executes one extraction batch, pushing progress to the job store
// and the WebSocket hub.
func (s *Server) runJob(job *Job, format ocr.Format, selected map[int]bool) {
	s.store.Update(job.ID, JobStatusRunning, 0, nil, "")

	var cache *ocr.Cache
	if s.cacheDir != "" {
		var err error
		cache, err = ocr.NewCache(filepath.Join(s.cacheDir, "ocr"))
		if err != nil {
			logging.Warn("ocr cache unavailable", "error", err)
		}
	}

	runner := &ocr.Runner{
		Client:    s.client,
		Cache:     cache,
		OutputDir: job.Request.OutputDir,
		Format:    format,
		OnUpdate: func(p ocr.Progress) {
			progress := 0
			if p.Total > 0 {
				progress = p.Current * 100 / p.Total
			}
			s.store.Update(job.ID, JobStatusRunning, progress, nil, "")
			s.hub.Broadcast(ProgressMessage{
				Type:     "progress",
				JobID:    job.ID,
				Stage:    "extract",
				Progress: progress,
				Message:  fmt.Sprintf("%d/%d %s", p.Current, p.Total, p.Filename),
				Data: map[string]any{
					"number":     p.Number,
					"language":   p.Language,
					"from_cache": p.FromCache,
					"error":      p.Err,
				},
			})
		},
	}

	summary, err := runner.Run(job.ctx, job.Request.ImageDir, selected)
	if err != nil {
		status := JobStatusFailed
		if job.ctx.Err() != nil {
			status = JobStatusCancelled
		}
		s.store.Update(job.ID, status, 0, nil, err.Error())
		s.hub.Broadcast(ProgressMessage{
			Type:    "error",
			JobID:   job.ID,
			Message: err.Error(),
		})
		return
	}

	s.store.Update(job.ID, JobStatusCompleted, 100, summary, "")
	s.hub.Broadcast(ProgressMessage{
		Type:     "complete",
		JobID:    job.ID,
		Progress: 100,
		Message:  fmt.Sprintf("processed %d hymns", len(summary.Entries)),
		Data:     map[string]any{"run_id": summary.RunID, "failed": summary.Failed},
	})
}

// handleJobByID handles GET /jobs/{id} and DELETE /jobs/{id}.
func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "MISSING_ID", "Job ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, exists := s.store.Get(id)
		if !exists {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
			return
		}
		respond(w, http.StatusOK, job)

	case http.MethodDelete:
		if err := s.store.Cancel(id); err != nil {
			if strings.Contains(err.Error(), "not found") {
				respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
				return
			}
			respondError(w, http.StatusBadRequest, "CANCEL_FAILED", err.Error())
			return
		}
		respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error("encoding response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respond(w, status, map[string]apiError{"error": {Code: code, Message: message}})
}
