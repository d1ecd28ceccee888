// Package api exposes the generation pipeline over HTTP.
//
// The surface is small: a health probe and two render endpoints that accept
// the pipeline options as JSON and return the encoded artifact directly.
// Uploads are requested through the same payload; in that case the response
// carries the published URLs instead of the artifact bytes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/platesouq/platekit/pkg/buildinfo"
	"github.com/platesouq/platekit/pkg/errors"
	"github.com/platesouq/platekit/pkg/pipeline"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8573"

// requestIDKey is the context key for the request ID.
type requestIDKey struct{}

// Server routes render requests to a pipeline runner.
type Server struct {
	Runner *pipeline.Runner
	Logger *log.Logger

	router chi.Router
}

// NewServer creates the HTTP surface around a runner.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{Runner: runner, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/render/plate", s.handleRenderPlate)
		r.Post("/render/scene", s.handleRenderScene)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// requestID tags each request with a UUID, exposed on the response and the
// request context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleRenderPlate(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	result, err := s.Runner.GeneratePlate(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", opts.PlateFormat.ContentType())
	w.Header().Set("X-Template-Key", result.TemplateKey)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Plate)
}

func (s *Server) handleRenderScene(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	result, err := s.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if opts.Upload {
		writeJSON(w, http.StatusOK, renderResponse{
			RequestID:   requestIDFrom(r.Context()),
			TemplateKey: result.TemplateKey,
			PlateURL:    result.PlateURL,
			SceneURL:    result.SceneURL,
			PlateBytes:  result.Stats.PlateBytes,
			SceneBytes:  result.Stats.SceneBytes,
		})
		return
	}

	w.Header().Set("Content-Type", opts.SceneFormat.ContentType())
	w.Header().Set("X-Template-Key", result.TemplateKey)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Scene)
}

// renderResponse is the JSON body returned for upload requests.
type renderResponse struct {
	RequestID   string `json:"request_id"`
	TemplateKey string `json:"template_key"`
	PlateURL    string `json:"plate_url,omitempty"`
	SceneURL    string `json:"scene_url,omitempty"`
	PlateBytes  int    `json:"plate_bytes"`
	SceneBytes  int    `json:"scene_bytes"`
}

// errorResponse is the JSON body returned for failed requests.
type errorResponse struct {
	Error     string      `json:"error"`
	Code      errors.Code `json:"code"`
	RequestID string      `json:"request_id,omitempty"`
}

func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, bool) {
	var opts pipeline.Options
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return pipeline.Options{}, false
	}
	// Settle format defaults here so the response headers agree with what
	// the runner encodes.
	if err := opts.ValidateForEncode(); err != nil {
		s.writeError(w, r, err)
		return pipeline.Options{}, false
	}
	return opts, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
	} else {
		s.Logger.Warn("request rejected", "path", r.URL.Path, "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
	})
}

// statusFor maps pipeline error codes onto HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRegion, errors.ErrCodeInvalidClass,
		errors.ErrCodeInvalidStyling, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeTemplateNotFound, errors.ErrCodeFontNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
