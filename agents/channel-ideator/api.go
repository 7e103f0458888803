package channelideator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"channel-ideator/internal/models"
	"channel-ideator/shared/config"
	"channel-ideator/shared/monitoring"
)

const maxRequestBody = 1 << 20

// Analyzer is the part of ChannelAgent the HTTP API needs.
type Analyzer interface {
	Analyze(ctx context.Context, channelURL string, monthsBack int) (*models.AnalysisResult, error)
	ArtifactPath(name string) (string, error)
	RecentAnalyses(ctx context.Context, channelURL string, limit int) ([]models.AnalysisSummary, error)
}

type analyzeRequest struct {
	ChannelURL string      `json:"channel_url"`
	MonthsBack monthsParam `json:"months_back"`
}

// monthsParam accepts 3 or "3". Browser forms post the input's string value.
// An empty string or null leaves the default.
type monthsParam int

func (m *monthsParam) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("months_back must be an integer, got %s", data)
	}
	*m = monthsParam(n)
	return nil
}

type analyzeResponse struct {
	Success       bool   `json:"success"`
	VideoCount    int    `json:"video_count"`
	SubtitleCount int    `json:"subtitle_count"`
	Ideas         string `json:"ideas"`
	CSVFile       string `json:"csv_file"`
	JSONFile      string `json:"json_file"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes channel analysis over HTTP.
type Server struct {
	port     int
	analyzer Analyzer
	monitor  *monitoring.Monitor
	health   *monitoring.HealthServer
	limiter  *rate.Limiter
}

// NewServer builds the API. Analyses are admitted by a token bucket refilled at
// RequestsPerMinute; a non-positive rate disables the limit.
func NewServer(cfg config.APIConfig, analyzer Analyzer, monitor *monitoring.Monitor) *Server {
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Server{
		port:     cfg.Port,
		analyzer: analyzer,
		monitor:  monitor,
		health:   monitoring.NewHealthServer(monitor, ""),
		limiter:  rate.NewLimiter(limit, burst),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/analyze", s.handleAnalyze)
	r.Get("/analyses", s.handleAnalyses)
	r.Get("/results/{file}", s.handleResult)
	r.Get("/static/results/{file}", s.handleResult)
	r.Get("/health", s.health.HealthHandler)
	r.Get("/status", s.health.StatusHandler)
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}
	req.ChannelURL = strings.TrimSpace(req.ChannelURL)
	if req.ChannelURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrChannelURLRequired.Error()})
		return
	}

	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many analysis requests, try again later"})
		return
	}

	logger := log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"channel":    req.ChannelURL,
	})
	logger.Info("Analysis requested")

	start := time.Now()
	result, err := s.analyzer.Analyze(r.Context(), req.ChannelURL, int(req.MonthsBack))
	switch {
	case errors.Is(err, ErrNoVideosFound):
		logger.Info("No videos found")
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrNoVideosFound.Error()})
		return
	case errors.Is(err, ErrChannelURLRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case err != nil:
		logger.Errorf("Analysis failed: %v", err)
		s.monitor.RecordCriticalFailure(fmt.Errorf("analysis of %s failed: %w", req.ChannelURL, err), time.Since(start))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Analysis failed"})
		return
	}

	s.monitor.RecordSuccess(fmt.Sprintf("analyzed %s: %d videos, %d transcripts",
		result.ChannelURL, result.VideosAnalyzed, result.VideosWithSubtitles), time.Since(start))

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:       true,
		VideoCount:    result.VideosAnalyzed,
		SubtitleCount: result.VideosWithSubtitles,
		Ideas:         result.GeneratedIdeas,
		CSVFile:       result.CSVFile,
		JSONFile:      result.JSONFile,
	})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	summaries, err := s.analyzer.RecentAnalyses(r.Context(), r.URL.Query().Get("channel"), limit)
	if err != nil {
		log.Errorf("Failed to list analyses: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to list analyses"})
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	path, err := s.analyzer.ArtifactPath(chi.URLParam(r, "file"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
		}).Info("HTTP request")
	})
}
