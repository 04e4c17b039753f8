package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloud8421/recipe"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
	"github.com/cloud8421/recipe/pkg/registry"
)

// Engine is the run surface the HTTP adapter drives. The top-level
// recipe.Engine satisfies it.
type Engine interface {
	RunNamed(ctx context.Context, name string, initial *domain.State, opts ...domain.RunOption) (*domain.Result, error)
	Recipe(ctx context.Context, name string) (*domain.Manifest, error)
	Recipes(ctx context.Context) ([]*domain.Manifest, error)
	Registry() *registry.Registry
	Watch(ctx context.Context) (<-chan struct{}, error)
}

var _ Engine = (*recipe.Engine)(nil)

// Server hosts the recipe API over HTTP.
type Server struct {
	Engine  Engine
	Store   ports.RunStore
	Metrics prometheus.Gatherer
	log     *slog.Logger
}

// Option configures the HTTP server.
type Option func(*Server)

// WithStore exposes recorded runs through the /runs endpoints. Without
// a store those endpoints answer 503.
func WithStore(store ports.RunStore) Option {
	return func(s *Server) { s.Store = store }
}

// WithMetrics serves the gatherer's metrics on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.Metrics = g }
}

// WithLogger routes the adapter's request logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.log = logger
		}
	}
}

// NewHandler creates the HTTP handler for the engine: the run and
// catalog endpoints under OpenAPI request validation, plus the contract
// document itself, Swagger UI and optional Prometheus metrics. It
// panics if the embedded OpenAPI document does not parse.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{Engine: engine, log: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(server)
		}
	}

	validate, err := server.requestValidator()
	if err != nil {
		panic(fmt.Sprintf("http: embedded OpenAPI document is invalid: %v", err))
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.Metrics, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Post("/runs", server.ExecuteRun)
		r.Get("/runs", server.ListRuns)
		r.Get("/runs/{id}", server.GetRun)
		r.Delete("/runs/{id}", server.DeleteRun)
		r.Get("/recipes", server.ListRecipes)
		r.Get("/recipes/{name}", server.GetRecipe)
		r.Post("/recipes/{name}/validate", server.ValidateRecipe)
		r.Get("/events", server.SubscribeEvents)
		r.Get("/health", server.GetHealth)
		r.Get("/info", server.GetInfo)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Recipe API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// RunRequest is the body of POST /runs.
type RunRequest struct {
	Recipe        string         `json:"recipe"`
	Values        map[string]any `json:"values,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Telemetry     *bool          `json:"telemetry,omitempty"`
}

// RunResponse is the terminal outcome of POST /runs.
type RunResponse struct {
	CorrelationID string           `json:"correlation_id"`
	Status        domain.RunStatus `json:"status"`
	Value         any              `json:"value,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// ValidationResult reports whether a manifest's declared steps all
// resolve against the registry.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	MissingSteps []string `json:"missing_steps,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ExecuteRun handles the POST /runs request. A failed run answers 422
// with the error handler's text; the correlation id in either outcome
// keys the stored record.
func (s *Server) ExecuteRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.log.Warn("run request body rejected", "error", err)
		return
	}
	if body.Recipe == "" {
		writeError(w, http.StatusBadRequest, "recipe name is required")
		return
	}

	correlationID := body.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	opts := []domain.RunOption{domain.WithCorrelationID(correlationID)}
	if body.Telemetry != nil {
		opts = append(opts, domain.WithTelemetry(*body.Telemetry))
	}

	initial := domain.NewState().WithValues(body.Values)
	result, err := s.Engine.RunNamed(r.Context(), body.Recipe, initial, opts...)
	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("recipe %q not found", body.Recipe))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, RunResponse{
			CorrelationID: correlationID,
			Status:        domain.RunFailed,
			Error:         err.Error(),
		})
		s.log.Warn("run failed", "recipe", body.Recipe, "correlation_id", correlationID, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{
		CorrelationID: result.CorrelationID,
		Status:        domain.RunSucceeded,
		Value:         result.Value,
	})
}

// ListRunsParams are the optional query filters accepted by ListRuns.
type ListRunsParams struct {
	Recipe *string
	Status *string
	Limit  *int
}

func bindListRunsParams(r *http.Request) (ListRunsParams, error) {
	var params ListRunsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "recipe", q, &params.Recipe); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "status", q, &params.Status); err != nil {
		return params, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		return params, err
	}
	return params, nil
}

// ListRuns handles the GET /runs request.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no run store configured")
		return
	}
	params, err := bindListRunsParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameter: %v", err))
		return
	}

	records, err := s.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list runs: %v", err))
		s.log.Error("list runs failed", "error", err)
		return
	}

	out := make([]*domain.RunRecord, 0, len(records))
	for _, rec := range records {
		if params.Recipe != nil && rec.Recipe != *params.Recipe {
			continue
		}
		if params.Status != nil && string(rec.Status) != *params.Status {
			continue
		}
		out = append(out, rec)
	}
	if params.Limit != nil && *params.Limit >= 0 && len(out) > *params.Limit {
		out = out[:*params.Limit]
	}
	writeJSON(w, http.StatusOK, out)
}

// GetRun handles the GET /runs/{id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no run store configured")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.Store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no run recorded under %q", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("load run: %v", err))
		s.log.Error("load run failed", "correlation_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRun handles the DELETE /runs/{id} request. Deleting a run that
// was never recorded still answers 204.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no run store configured")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.Store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("delete run: %v", err))
		s.log.Error("delete run failed", "correlation_id", id, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRecipes handles the GET /recipes request.
func (s *Server) ListRecipes(w http.ResponseWriter, r *http.Request) {
	manifests, err := s.Engine.Recipes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list recipes: %v", err))
		s.log.Error("list recipes failed", "error", err)
		return
	}
	if manifests == nil {
		manifests = []*domain.Manifest{}
	}
	writeJSON(w, http.StatusOK, manifests)
}

// GetRecipe handles the GET /recipes/{name} request.
func (s *Server) GetRecipe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, err := s.Engine.Recipe(r.Context(), name)
	if errors.Is(err, domain.ErrRecipeNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("recipe %q not found", name))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("load recipe: %v", err))
		s.log.Error("load recipe failed", "recipe", name, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ValidateRecipe handles the POST /recipes/{name}/validate request. The
// outcome is always 200; validity is reported in the payload.
func (s *Server) ValidateRecipe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, err := s.Engine.Recipe(r.Context(), name)
	if errors.Is(err, domain.ErrRecipeNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("recipe %q not found", name))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("load recipe: %v", err))
		s.log.Error("load recipe failed", "recipe", name, "error", err)
		return
	}

	result := ValidationResult{Valid: true}
	if _, err := s.Engine.Registry().Bind(m); err != nil {
		result.Valid = false
		result.Error = err.Error()
		var missing *domain.MissingStepsError
		if errors.As(err, &missing) {
			result.MissingSteps = missing.Steps
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// SubscribeEvents handles the GET /events request. It streams catalog
// reload notifications as server-sent events until the client
// disconnects.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		s.log.Error("SSE: streaming not supported")
		return
	}

	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("watch error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.log.Info("SSE client disconnected")
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: catalog\n\n")
			flusher.Flush()
		}
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "recipe-http",
		"version":     strings.TrimSpace(recipe.Version),
		"api_version": apiVersion,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
