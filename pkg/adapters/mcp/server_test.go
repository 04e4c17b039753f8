package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud8421/recipe"
	"github.com/cloud8421/recipe/pkg/adapters/memory"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/registry"
)

var errNoFunds = errors.New("insufficient funds")

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	catalog, err := memory.NewCatalog(
		&domain.Manifest{Name: "math", Steps: []string{"square", "double"}, Result: "number"},
		&domain.Manifest{Name: "payment", Steps: []string{"charge"}},
		&domain.Manifest{Name: "broken", Steps: []string{"missing"}},
	)
	require.NoError(t, err)

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
	reg.Register("charge", func(_ context.Context, _ *domain.State) (*domain.State, error) {
		return nil, errNoFunds
	})

	store := memory.NewStore()
	eng := recipe.New(
		recipe.WithSource(catalog),
		recipe.WithRegistry(reg),
		recipe.WithStore(store),
	)
	return NewServer(eng, WithStore(store)), store
}

func TestRunRecipeTool(t *testing.T) {
	s, _ := newTestServer(t)

	out, err := s.handleRunRecipe(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"recipe": "math",
		"values": `{"number": 4}`,
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.RunSucceeded), out.Status)
	assert.Equal(t, float64(32), out.Value)
	assert.NotEmpty(t, out.CorrelationID)
}

func TestRunRecipeToolReportsRunFailure(t *testing.T) {
	s, store := newTestServer(t)

	out, err := s.handleRunRecipe(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"recipe":         "payment",
		"correlation_id": "pay-1",
	})
	require.NoError(t, err, "a failed run is an outcome, not a tool error")

	assert.Equal(t, string(domain.RunFailed), out.Status)
	assert.Equal(t, "pay-1", out.CorrelationID)
	assert.Equal(t, "insufficient funds", out.Error)

	rec, err := store.Load(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "charge", rec.FailedStep)
}

func TestRunRecipeToolErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleRunRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.ErrorContains(t, err, "recipe name is required")

	_, err = s.handleRunRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"recipe": "ghost",
	})
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = s.handleRunRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"recipe": "broken",
	})
	var missing *domain.MissingStepsError
	assert.ErrorAs(t, err, &missing)

	_, err = s.handleRunRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"recipe": "math",
		"values": "not json",
	})
	assert.ErrorContains(t, err, "values must be a JSON object")
}

func TestValidateRecipeTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	out, err := s.handleValidateRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"recipe": "math",
	})
	require.NoError(t, err)
	assert.True(t, out.Valid)

	out, err = s.handleValidateRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"recipe": "broken",
	})
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, []string{"missing"}, out.MissingSteps)

	_, err = s.handleValidateRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"recipe": "ghost",
	})
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRunTool(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleRunRecipe(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"recipe":         "math",
		"values":         `{"number": 3}`,
		"correlation_id": "math-1",
	})
	require.NoError(t, err)

	rec, err := s.handleGetRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"correlation_id": "math-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "math", rec.Recipe)
	assert.Equal(t, domain.RunSucceeded, rec.Status)
	assert.Equal(t, float64(18), rec.Values["number"])

	_, err = s.handleGetRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"correlation_id": "nope",
	})
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	_, err = s.handleGetRun(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.ErrorContains(t, err, "correlation_id is required")
}

func TestGetRunToolWithoutStore(t *testing.T) {
	catalog, err := memory.NewCatalog(&domain.Manifest{Name: "math", Steps: []string{"square"}})
	require.NoError(t, err)
	eng := recipe.New(recipe.WithSource(catalog))
	s := NewServer(eng)

	_, err = s.handleGetRun(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"correlation_id": "any",
	})
	assert.ErrorContains(t, err, "no run store configured")
}
