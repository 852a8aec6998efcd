// Package server exposes a fitted classifier over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/happyhackingspace/hamspam"
	"github.com/happyhackingspace/hamspam/internal/logger"
	"github.com/happyhackingspace/hamspam/internal/metrics"
)

// Predictor labels raw texts.
type Predictor interface {
	Predict(texts []string) ([]hamspam.Prediction, error)
}

// Options configure a Server.
type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	MaxTexts        int
	ModelID         string // reported by /healthz
}

func (o Options) withDefaults() Options {
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 5 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.MaxTexts <= 0 {
		o.MaxTexts = 1000
	}
	return o
}

// Server serves predictions from one shared, read-only predictor.
type Server struct {
	predictor Predictor
	metrics   *metrics.Metrics
	opts      Options
	logger    *slog.Logger
}

// New creates a server. m may be nil.
func New(p Predictor, m *metrics.Metrics, opts Options) *Server {
	return &Server{
		predictor: p,
		metrics:   m,
		opts:      opts.withDefaults(),
		logger:    logger.WithComponent("server"),
	}
}

// PredictRequest is the /predict body. Text and Texts may be combined.
type PredictRequest struct {
	Text  string   `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`
}

// PredictResponse is the /predict reply, one prediction per text.
type PredictResponse struct {
	Predictions []hamspam.Prediction `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the HTTP routes wrapped in the metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return instrument(s.metrics, mux)
}

// Run listens on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Prediction server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down prediction server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	var req PredictRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	texts := req.Texts
	if req.Text != "" {
		texts = append([]string{req.Text}, texts...)
	}
	if len(texts) == 0 {
		s.writeError(w, http.StatusBadRequest, "body must contain 'text' or 'texts'")
		return
	}
	if len(texts) > s.opts.MaxTexts {
		s.writeError(w, http.StatusRequestEntityTooLarge, "at most "+strconv.Itoa(s.opts.MaxTexts)+" texts per request")
		return
	}

	preds, err := s.predictor.Predict(texts)
	if err != nil {
		s.logger.Error("Prediction failed", "error", err, "texts", len(texts))
		s.writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	for _, p := range preds {
		s.metrics.ObservePrediction(p.Class)
	}
	s.writeJSON(w, http.StatusOK, PredictResponse{Predictions: preds})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "model_id": s.opts.ModelID})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
