package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.temporal.io/api/serviceerror"

	"github.com/leowmjw/go-chart-viewport/pkg/chart"
	"github.com/leowmjw/go-chart-viewport/pkg/hcl"
	"github.com/leowmjw/go-chart-viewport/pkg/metrics"
	"github.com/leowmjw/go-chart-viewport/pkg/series"
	"github.com/leowmjw/go-chart-viewport/pkg/temporal"
)

const (
	maxBodyBytes      = 8 << 20
	maxStreamMessage  = 64 << 10
	streamReadTimeout = 5 * time.Minute
)

// Server represents the HTTP server for the chart service
type Server struct {
	logger   *slog.Logger
	sessions temporal.Sessions
	addr     string
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewServer creates a new HTTP server. A nil m gets private collectors.
func NewServer(logger *slog.Logger, sessions temporal.Sessions, addr string, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Server{
		logger:   logger,
		sessions: sessions,
		addr:     addr,
		metrics:  m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /charts", s.handleCreateChart)
	mux.HandleFunc("PUT /charts/{id}", s.handleCreateChart)
	mux.HandleFunc("DELETE /charts/{id}", s.handleCloseChart)
	mux.HandleFunc("POST /charts/{id}/series", s.handleSeries)
	mux.HandleFunc("POST /charts/{id}/events", s.handleEvents)
	mux.HandleFunc("POST /charts/{id}/interval", s.handleInterval)
	mux.HandleFunc("GET /charts/{id}/render", s.handleRender)
	mux.HandleFunc("GET /charts/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// logging sits closest to the mux so it sees the matched pattern
	return middleware.RequestID(middleware.Recoverer(s.loggingMiddleware(mux)))
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// Chart creation. POST picks a new ID, PUT uses the one in the path.
func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")
	if chartID == "" {
		chartID = uuid.NewString()
	}

	cfg, err := s.decodeConfig(w, r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("Creating chart", "chartID", chartID, "kind", cfg.Kind, "intervals", len(cfg.Intervals))

	workflowID, err := s.sessions.Start(r.Context(), temporal.SessionParams{ChartID: chartID, Config: cfg})
	if err != nil {
		s.logger.Error("Failed to start session", "chartID", chartID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to start chart session")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"chart_id":    chartID,
		"workflow_id": workflowID,
	})
}

func (s *Server) decodeConfig(w http.ResponseWriter, r *http.Request) (chart.Config, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		return chart.Config{}, err
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return chart.Config{}, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return chart.DefaultConfig(series.KindBar), nil
	}
	return hcl.ParseChartConfigBytes(body, contentType)
}

func (s *Server) handleCloseChart(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")
	if !s.forward(w, r, chartID, temporal.Input{Kind: temporal.InputClose}) {
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"message":  "chart session closing",
		"chart_id": chartID,
	})
}

// Series upload. The payload is validated here so bad data never reaches
// the session.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")

	var payload series.Payload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ser, err := payload.ToSeries()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload.Kind = ser.Kind()

	s.logger.Info("Uploading series", "chartID", chartID, "kind", ser.Kind(), "count", ser.Len())

	if !s.forward(w, r, chartID, temporal.Input{Kind: temporal.InputSeries, Series: &payload}) {
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":  "series queued",
		"chart_id": chartID,
		"count":    ser.Len(),
	})
}

// Pointer, wheel and resize events, applied in order
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")

	var inputs []temporal.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&inputs); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(inputs) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one event is required")
		return
	}
	for i, in := range inputs {
		if !in.Kind.Valid() {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("event %d: unknown kind %q", i, in.Kind))
			return
		}
	}

	for _, in := range inputs {
		if !s.forward(w, r, chartID, in) {
			return
		}
	}
	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":     "events queued",
		"chart_id":    chartID,
		"event_count": len(inputs),
	})
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")

	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body.Key == "" {
		s.respondError(w, http.StatusBadRequest, "interval key is required")
		return
	}

	if !s.forward(w, r, chartID, temporal.Input{Kind: temporal.InputSelectInterval, Key: body.Key}) {
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]string{
		"message":  "interval requested",
		"chart_id": chartID,
		"key":      body.Key,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")

	view, err := s.sessions.Render(r.Context(), chartID)
	if err != nil {
		s.logger.Error("Failed to render chart", "chartID", chartID, "error", err)
		s.respondError(w, statusFor(err), "failed to render chart")
		return
	}
	s.metrics.Renders.Inc()
	s.respondJSON(w, http.StatusOK, view)
}

// forward signals one input and writes the error response on failure
func (s *Server) forward(w http.ResponseWriter, r *http.Request, chartID string, in temporal.Input) bool {
	if err := s.signal(r.Context(), chartID, in); err != nil {
		s.logger.Error("Failed to signal session", "chartID", chartID, "kind", in.Kind, "error", err)
		s.respondError(w, statusFor(err), "failed to deliver input")
		return false
	}
	return true
}

func (s *Server) signal(ctx context.Context, chartID string, in temporal.Input) error {
	if err := s.sessions.Signal(ctx, chartID, in); err != nil {
		s.metrics.SignalErrors.Inc()
		return err
	}
	s.metrics.Inputs.WithLabelValues(string(in.Kind)).Inc()
	return nil
}

func statusFor(err error) int {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Middleware for request logging and metrics
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.Requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapper.statusCode)).Inc()
		s.metrics.RequestLatency.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", duration,
			"request_id", middleware.GetReqID(r.Context()),
			"user_agent", r.UserAgent(),
		)
	})
}

// Response helpers
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("HTTP error response", "status", status, "message", message)
	s.respondJSON(w, status, map[string]string{"error": message})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader through the wrapper
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}
