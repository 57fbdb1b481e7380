// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/KaramelBytes/insightloom/internal/insight"
	"github.com/KaramelBytes/insightloom/internal/parser"
	"github.com/KaramelBytes/insightloom/internal/service"
)

// ErrMissingFile means the request carried no "file" part.
var ErrMissingFile = errors.New("no file uploaded")

const (
	internalMessage = "internal error"
	// multipart parts above this size spill to temp files
	maxMemory = 8 << 20
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req service.Request) (*service.Result, error)
}

// Options configures the router.
type Options struct {
	// MaxUploadMB caps the request body. Zero or less means 10.
	MaxUploadMB    int
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler serves the analysis endpoints.
type Handler struct {
	analyzer    Analyzer
	maxUploadMB int
	log         *slog.Logger
}

// NewRouter wires the endpoints and middleware around analyzer.
func NewRouter(analyzer Analyzer, opts Options) http.Handler {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 10
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	h := &Handler{analyzer: analyzer, maxUploadMB: opts.MaxUploadMB, log: opts.Logger}

	mux := chi.NewRouter()
	mux.Use(RequestID)
	mux.Use(AccessLog(opts.Logger))
	mux.Use(Recoverer(opts.Logger))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Post("/analyze", h.wrap(h.handleAnalyze))
	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps pipeline errors onto status codes and JSON error bodies.
func (h *Handler) wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		var (
			tooLarge *http.MaxBytesError
			parseErr *parser.ParseError
			compErr  *insight.ComputationError
		)
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large (max %dMB)", h.maxUploadMB))
		case errors.Is(err, ErrMissingFile):
			writeError(w, http.StatusBadRequest, "No file uploaded")
		case errors.Is(err, parser.ErrEmptyDataset):
			writeError(w, http.StatusBadRequest, "Uploaded file is empty or invalid")
		case errors.As(err, &parseErr):
			writeError(w, http.StatusBadRequest, "Could not parse file: "+parseErr.Error())
		case errors.As(err, &compErr):
			writeError(w, http.StatusBadRequest, "Could not compute insight: "+compErr.Error())
		default:
			h.log.Error("analyze failed", "request_id", RequestIDFrom(r.Context()), "err", err)
			writeError(w, http.StatusInternalServerError, internalMessage)
		}
	}
}

// POST /analyze
// multipart form: file (required), chart_type, column, value_column, sheet
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxUploadMB)<<20)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return ErrMissingFile
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return ErrMissingFile
	}
	f, err := files[0].Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	req := service.Request{
		Filename:    files[0].Filename,
		Data:        data,
		ChartType:   formValue(r, "chart_type"),
		Column:      formValue(r, "column"),
		ValueColumn: formValue(r, "value_column"),
		Sheet:       formValue(r, "sheet"),
	}
	h.log.Debug("analyze request",
		"request_id", RequestIDFrom(r.Context()),
		"file", req.Filename,
		"bytes", len(data),
		"column", req.Column,
		"value_column", req.ValueColumn,
	)
	res, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func formValue(r *http.Request, key string) string {
	if v := r.MultipartForm.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ListenAndServe runs h on addr until ctx is cancelled, then drains in-flight requests.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
