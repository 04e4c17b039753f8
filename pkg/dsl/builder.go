package dsl

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cloud8421/recipe/internal/runtime"
	"github.com/cloud8421/recipe/pkg/domain"
)

// Builder accumulates a recipe's step sequence and handlers.
type Builder struct {
	name     string
	steps    []string
	handlers map[string]domain.StepFunc
	onResult domain.ResultFunc
	onError  domain.ErrorFunc
}

// New creates a builder for a recipe with the given name.
func New(name string) *Builder {
	return &Builder{
		name:     name,
		handlers: make(map[string]domain.StepFunc),
	}
}

// Step appends a named step with its implementation. Appending the same
// name twice runs it twice; the latest implementation wins for both.
func (b *Builder) Step(name string, fn domain.StepFunc) *Builder {
	b.steps = append(b.steps, name)
	b.handlers[name] = fn
	return b
}

// Declare appends step names without implementations. Declared names
// must be bound with Implement before Build accepts the recipe.
func (b *Builder) Declare(names ...string) *Builder {
	b.steps = append(b.steps, names...)
	return b
}

// Implement binds an implementation to an already declared name without
// appending it to the sequence.
func (b *Builder) Implement(name string, fn domain.StepFunc) *Builder {
	b.handlers[name] = fn
	return b
}

// OnResult sets the success handler, applied to the final state when
// every step succeeds. Without one the final state itself is the result.
func (b *Builder) OnResult(fn domain.ResultFunc) *Builder {
	b.onResult = fn
	return b
}

// OnError sets the failure handler, applied to the failing step's name,
// its error and the state that step received. Without one the step's
// error is returned as is.
func (b *Builder) OnError(fn domain.ErrorFunc) *Builder {
	b.onError = fn
	return b
}

// Build compiles and validates the recipe. A recipe with no declared
// steps or with unimplemented names is rejected.
func (b *Builder) Build() (*domain.Recipe, error) {
	def := domain.NewRecipe(b.name,
		slices.Clone(b.steps),
		maps.Clone(b.handlers),
		b.onResult,
		b.onError,
	)
	if err := runtime.Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

// MustBuild is Build that panics on validation errors. Intended for
// recipes assembled from literals at program start.
func (b *Builder) MustBuild() *domain.Recipe {
	def, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("dsl: invalid recipe %q: %v", b.name, err))
	}
	return def
}
