package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloud8421/recipe"
	"github.com/cloud8421/recipe/pkg/adapters/memory"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
	"github.com/cloud8421/recipe/pkg/registry"
	"github.com/cloud8421/recipe/pkg/telemetry"
)

var errCardDeclined = errors.New("card declined")

// JSON numbers arrive as float64, so the arithmetic steps work on that.
func testRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register("square", func(_ context.Context, st *domain.State) (*domain.State, error) {
		n, _ := st.Value("number")
		v, _ := n.(float64)
		return st.Assign("number", v*v), nil
	})
	reg.Register("double", func(_ context.Context, st *domain.State) (*domain.State, error) {
		n, _ := st.Value("number")
		v, _ := n.(float64)
		return st.Assign("number", v*2), nil
	})
	reg.Register("reserve", func(_ context.Context, st *domain.State) (*domain.State, error) {
		return st.Assign("reserved", true), nil
	})
	reg.Register("charge", func(_ context.Context, _ *domain.State) (*domain.State, error) {
		return nil, errCardDeclined
	})
	return reg
}

func testCatalog(t *testing.T) *memory.Catalog {
	t.Helper()
	catalog, err := memory.NewCatalog(
		&domain.Manifest{Name: "math", Title: "Math", Steps: []string{"square", "double"}, Result: "number"},
		&domain.Manifest{Name: "payment", Steps: []string{"reserve", "charge"}},
		&domain.Manifest{Name: "broken", Steps: []string{"missing"}},
	)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return catalog
}

func newTestHandler(t *testing.T, opts ...Option) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	eng := recipe.New(
		recipe.WithSource(testCatalog(t)),
		recipe.WithRegistry(testRegistry()),
		recipe.WithStore(store),
	)
	opts = append([]Option{WithStore(store)}, opts...)
	return NewHandler(eng, opts...), store
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestExecuteRun_Success(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postJSON(t, handler, "/runs", `{"recipe":"math","values":{"number":4}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != domain.RunSucceeded {
		t.Errorf("expected succeeded, got %s", resp.Status)
	}
	if v, ok := resp.Value.(float64); !ok || v != 32 {
		t.Errorf("expected value 32, got %v", resp.Value)
	}
	if resp.CorrelationID == "" {
		t.Fatal("expected a generated correlation id")
	}

	// The terminal outcome is retrievable under the returned id.
	wGet := getPath(t, handler, "/runs/"+resp.CorrelationID)
	if wGet.Code != http.StatusOK {
		t.Fatalf("expected recorded run, got %d", wGet.Code)
	}
	var rec domain.RunRecord
	if err := json.Unmarshal(wGet.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if rec.Status != domain.RunSucceeded || rec.Recipe != "math" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestExecuteRun_RunFailure(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postJSON(t, handler, "/runs", `{"recipe":"payment","values":{"amount":100},"correlation_id":"run-pay-1"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != domain.RunFailed {
		t.Errorf("expected failed, got %s", resp.Status)
	}
	if resp.CorrelationID != "run-pay-1" {
		t.Errorf("expected the supplied correlation id, got %q", resp.CorrelationID)
	}
	if resp.Error != "card declined" {
		t.Errorf("expected the step error verbatim, got %q", resp.Error)
	}

	wGet := getPath(t, handler, "/runs/run-pay-1")
	if wGet.Code != http.StatusOK {
		t.Fatalf("expected recorded run, got %d", wGet.Code)
	}
	var rec domain.RunRecord
	if err := json.Unmarshal(wGet.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if rec.FailedStep != "charge" {
		t.Errorf("expected failed step charge, got %q", rec.FailedStep)
	}
}

func TestExecuteRun_RecipeNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postJSON(t, handler, "/runs", `{"recipe":"ghost"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestExecuteRun_UnresolvedSteps(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postJSON(t, handler, "/runs", `{"recipe":"broken"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.Contains(resp.Error, "missing steps") {
		t.Errorf("expected missing-steps error, got %q", resp.Error)
	}
}

func TestExecuteRun_ContractRejectsMissingRecipe(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postJSON(t, handler, "/runs", `{"values":{"number":4}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 from the contract, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "recipe") {
		t.Errorf("expected the violation to name the field, got %s", w.Body.String())
	}
}

func seedRecords(t *testing.T, store *memory.Store) {
	t.Helper()
	now := time.Now()
	records := []*domain.RunRecord{
		{CorrelationID: "a", Recipe: "math", Status: domain.RunSucceeded, StartedAt: now.Add(-3 * time.Minute), FinishedAt: now.Add(-3 * time.Minute)},
		{CorrelationID: "b", Recipe: "payment", Status: domain.RunFailed, FailedStep: "charge", StartedAt: now.Add(-2 * time.Minute), FinishedAt: now.Add(-2 * time.Minute)},
		{CorrelationID: "c", Recipe: "math", Status: domain.RunSucceeded, StartedAt: now.Add(-time.Minute), FinishedAt: now.Add(-time.Minute)},
	}
	for _, rec := range records {
		if err := store.Save(context.Background(), rec); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
}

func TestListRuns_FiltersAndLimit(t *testing.T) {
	handler, store := newTestHandler(t)
	seedRecords(t, store)

	decode := func(w *httptest.ResponseRecorder) []domain.RunRecord {
		t.Helper()
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var out []domain.RunRecord
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decoding records: %v", err)
		}
		return out
	}

	all := decode(getPath(t, handler, "/runs"))
	if len(all) != 3 || all[0].CorrelationID != "c" {
		t.Errorf("expected 3 runs most recent first, got %+v", all)
	}

	math := decode(getPath(t, handler, "/runs?recipe=math"))
	if len(math) != 2 {
		t.Errorf("expected 2 math runs, got %d", len(math))
	}

	failed := decode(getPath(t, handler, "/runs?status=failed"))
	if len(failed) != 1 || failed[0].CorrelationID != "b" {
		t.Errorf("expected the failed payment run, got %+v", failed)
	}

	limited := decode(getPath(t, handler, "/runs?limit=1"))
	if len(limited) != 1 {
		t.Errorf("expected 1 run, got %d", len(limited))
	}

	if w := getPath(t, handler, "/runs?limit=abc"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a non-integer limit, got %d", w.Code)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	if w := getPath(t, handler, "/runs/nope"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDeleteRun(t *testing.T) {
	handler, store := newTestHandler(t)
	seedRecords(t, store)

	req := httptest.NewRequest(http.MethodDelete, "/runs/a", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	if w := getPath(t, handler, "/runs/a"); w.Code != http.StatusNotFound {
		t.Errorf("expected the run to be gone, got %d", w.Code)
	}
}

func TestRunEndpointsWithoutStore(t *testing.T) {
	eng := recipe.New(
		recipe.WithSource(testCatalog(t)),
		recipe.WithRegistry(testRegistry()),
	)
	handler := NewHandler(eng)

	if w := getPath(t, handler, "/runs"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a store, got %d", w.Code)
	}
}

func TestListRecipes(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := getPath(t, handler, "/recipes")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var manifests []domain.Manifest
	if err := json.Unmarshal(w.Body.Bytes(), &manifests); err != nil {
		t.Fatalf("decoding manifests: %v", err)
	}
	if len(manifests) != 3 {
		t.Fatalf("expected 3 manifests, got %d", len(manifests))
	}
	// The catalog lists by name.
	for i, want := range []string{"broken", "math", "payment"} {
		if manifests[i].Name != want {
			t.Errorf("manifest %d: expected %q, got %q", i, want, manifests[i].Name)
		}
	}
}

func TestGetRecipe(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := getPath(t, handler, "/recipes/math")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var m domain.Manifest
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decoding manifest: %v", err)
	}
	if m.Name != "math" || len(m.Steps) != 2 {
		t.Errorf("unexpected manifest: %+v", m)
	}

	if w := getPath(t, handler, "/recipes/ghost"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestValidateRecipe(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := postJSON(t, handler, "/recipes/math/validate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result ValidationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected math to validate, got %+v", result)
	}

	w = postJSON(t, handler, "/recipes/broken/validate", "")
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.Valid || len(result.MissingSteps) != 1 || result.MissingSteps[0] != "missing" {
		t.Errorf("expected broken to report its unresolved step, got %+v", result)
	}

	if w := postJSON(t, handler, "/recipes/ghost/validate", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

type watchableCatalog struct {
	ports.Loader
	events chan struct{}
}

func (c *watchableCatalog) Watch(_ context.Context) (<-chan struct{}, error) {
	return c.events, nil
}

func TestSubscribeEvents_Reload(t *testing.T) {
	events := make(chan struct{}, 1)
	events <- struct{}{}
	close(events)

	eng := recipe.New(
		recipe.WithSource(&watchableCatalog{Loader: testCatalog(t), events: events}),
		recipe.WithRegistry(testRegistry()),
	)
	handler := NewHandler(eng)

	w := getPath(t, handler, "/events")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: ping") {
		t.Error("expected the initial ping event")
	}
	if !strings.Contains(body, "event: reload") {
		t.Error("expected a reload event")
	}
}

func TestSubscribeEvents_UnwatchableSource(t *testing.T) {
	handler, _ := newTestHandler(t)

	if w := getPath(t, handler, "/events"); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for a source without watch support, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	promReg := prometheus.NewRegistry()
	store := memory.NewStore()
	eng := recipe.New(
		recipe.WithSource(testCatalog(t)),
		recipe.WithRegistry(testRegistry()),
		recipe.WithStore(store),
		recipe.WithObserver(telemetry.NewPrometheusObserver(promReg)),
		recipe.WithTelemetry(true),
	)
	handler := NewHandler(eng, WithStore(store), WithMetrics(promReg))

	if w := postJSON(t, handler, "/runs", `{"recipe":"math","values":{"number":2}}`); w.Code != http.StatusOK {
		t.Fatalf("run failed: %d %s", w.Code, w.Body.String())
	}

	w := getPath(t, handler, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "recipe_runs_started_total") {
		t.Error("expected run metrics to be exported")
	}
}

func TestMetricsAbsentWithoutGatherer(t *testing.T) {
	handler, _ := newTestHandler(t)

	if w := getPath(t, handler, "/metrics"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := getPath(t, handler, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", w.Body.String())
	}
}

func TestGetInfo(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := getPath(t, handler, "/info")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var info map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decoding info: %v", err)
	}
	if info["app"] != "recipe-http" {
		t.Errorf("unexpected app name %q", info["app"])
	}
	if info["version"] == "" || info["api_version"] == "" {
		t.Errorf("expected version information, got %+v", info)
	}
}

func TestSpecAndDocsAreServed(t *testing.T) {
	handler, _ := newTestHandler(t)

	w := getPath(t, handler, "/openapi.yaml")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "openapi: 3.0.3") {
		t.Errorf("expected the raw contract, got %d", w.Code)
	}

	w = getPath(t, handler, "/swagger")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "swagger-ui") {
		t.Errorf("expected the Swagger UI page, got %d", w.Code)
	}
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	if err != nil {
		t.Fatalf("embedded contract must parse: %v", err)
	}
	if doc.Info == nil || doc.Info.Version == "" {
		t.Error("expected the contract to carry a version")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected a CORS allow-origin header")
	}
}
