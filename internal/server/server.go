// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz             liveness and build info
//	POST /v1/render?format=   scene in, one artifact out (svg, png, json, msgpack)
//	POST /v1/lines            scene in, computed frame geometry out as JSON
//
// The scene encoding is taken from the "scene" query parameter or the
// request Content-Type and defaults to JSON. Identical concurrent requests
// share one pipeline run.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/leaderline/pkg/buildinfo"
	"github.com/matzehuels/leaderline/pkg/errors"
	"github.com/matzehuels/leaderline/pkg/observability"
	"github.com/matzehuels/leaderline/pkg/pipeline"
	"github.com/matzehuels/leaderline/pkg/render"
	"github.com/matzehuels/leaderline/pkg/scene"
)

const (
	// DefaultMaxBodyBytes bounds the size of an uploaded scene.
	DefaultMaxBodyBytes = 1 << 20

	// DefaultRequestTimeout bounds a single pipeline run.
	DefaultRequestTimeout = 30 * time.Second
)

// Server serves render requests from a shared pipeline runner.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
	timeout time.Duration
	flight  singleflight.Group
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithRequestTimeout bounds each pipeline run.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a server. A nil logger logs to stderr.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		maxBody: DefaultMaxBodyBytes,
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Server", buildinfo.Get().Agent()))
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/lines", s.handleLines)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		began := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(began)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = pipeline.FormatSVG
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := renderOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Formats = []string{string(format)}

	res, err := s.run(r, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Cache", cacheHeader(res.hit))
	w.WriteHeader(http.StatusOK)
	w.Write(res.artifacts[string(format)])
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	res, err := s.run(r, pipeline.Options{Formats: []string{pipeline.FormatJSON}})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", render.FormatJSON.ContentType())
	w.Header().Set("X-Cache", cacheHeader(res.hit))
	w.WriteHeader(http.StatusOK)
	w.Write(res.artifacts[pipeline.FormatJSON])
}

// =============================================================================
// Pipeline execution
// =============================================================================

type runResult struct {
	artifacts map[string][]byte
	hit       bool
}

// run decodes the request scene and executes the pipeline. Requests with
// the same scene and options are collapsed into one execution.
func (s *Server) run(r *http.Request, opts pipeline.Options) (runResult, error) {
	sc, err := s.decodeScene(r)
	if err != nil {
		return runResult{}, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return runResult{}, err
	}
	opts.Logger = nil

	key, err := flightKey(sc, opts)
	if err != nil {
		return runResult{}, err
	}
	v, err, shared := s.flight.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.timeout)
		defer cancel()
		res, err := s.runner.Execute(ctx, sc, opts)
		if err != nil {
			return nil, err
		}
		return runResult{artifacts: res.Artifacts, hit: res.CacheInfo.RenderHit}, nil
	})
	if err != nil {
		return runResult{}, err
	}
	if shared {
		s.logger.Debug("shared pipeline run", "scene", sc.Hash())
	}
	return v.(runResult), nil
}

func flightKey(sc *scene.Scene, opts pipeline.Options) (string, error) {
	o, err := json.Marshal(opts)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode options")
	}
	return sc.Hash() + ":" + string(o), nil
}

func (s *Server) decodeScene(r *http.Request) (*scene.Scene, error) {
	format, err := sceneFormat(r)
	if err != nil {
		return nil, err
	}
	body := http.MaxBytesReader(nil, r.Body, s.maxBody)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "scene exceeds %d bytes", tooLarge.Limit)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read scene")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	return pipeline.Parse(r.Context(), data, format, "request")
}

func sceneFormat(r *http.Request) (scene.Format, error) {
	if name := r.URL.Query().Get("scene"); name != "" {
		return scene.ParseFormat(name)
	}
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "toml"):
		return scene.FormatTOML, nil
	case strings.Contains(ct, "yaml"):
		return scene.FormatYAML, nil
	}
	return scene.FormatJSON, nil
}

func renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	var opts pipeline.Options
	var err error
	if opts.Scale, err = floatParam(q.Get("scale")); err != nil {
		return opts, err
	}
	if opts.Padding, err = floatParam(q.Get("padding")); err != nil {
		return opts, err
	}
	if opts.Fit, err = boolParam("fit", q.Get("fit")); err != nil {
		return opts, err
	}
	if opts.Animate, err = boolParam("animate", q.Get("animate")); err != nil {
		return opts, err
	}
	if opts.LinesOnly, err = boolParam("lines_only", q.Get("lines_only")); err != nil {
		return opts, err
	}
	return opts, nil
}

func floatParam(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid number %q", v)
	}
	return f, nil
}

func boolParam(name, v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s flag %q", name, v)
	}
	return b, nil
}

// =============================================================================
// Responses
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFor maps an error to an HTTP status: caller mistakes are 400,
// missing resources 404, pipeline timeouts 504, anything else 500.
func StatusFor(err error) int {
	switch {
	case errors.IsConfigError(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Code: string(code), Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
