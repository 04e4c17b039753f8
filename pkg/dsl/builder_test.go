package dsl

import (
	"context"
	"errors"
	"testing"

	"github.com/cloud8421/recipe/pkg/domain"
)

func square(_ context.Context, st *domain.State) (*domain.State, error) {
	n, _ := st.Value("number")
	return st.Assign("number", n.(int)*n.(int)), nil
}

func double(_ context.Context, st *domain.State) (*domain.State, error) {
	n, _ := st.Value("number")
	return st.Assign("number", n.(int)*2), nil
}

func TestBuilder_SimpleRecipe(t *testing.T) {
	// 1. Build the recipe using the DSL
	def, err := New("math").
		Step("square", square).
		Step("double", double).
		OnResult(func(st *domain.State) any {
			n, _ := st.Value("number")
			return n
		}).
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 2. Verify the compiled definition
	if def.Name() != "math" {
		t.Errorf("Expected name 'math', got '%s'", def.Name())
	}
	steps := def.Steps()
	if len(steps) != 2 || steps[0] != "square" || steps[1] != "double" {
		t.Errorf("Expected [square double], got %v", steps)
	}

	// 3. Execute a step directly to confirm binding
	fn, ok := def.Step("square")
	if !ok {
		t.Fatal("Expected square to resolve")
	}
	st, err := fn(context.Background(), domain.NewState().Assign("number", 4))
	if err != nil {
		t.Fatalf("square failed: %v", err)
	}
	if n, _ := st.Value("number"); n != 16 {
		t.Errorf("Expected 16, got %v", n)
	}
}

func TestBuilder_DeclareThenImplement(t *testing.T) {
	b := New("math").
		Declare("square", "double").
		Implement("square", square)

	// Still missing double.
	_, err := b.Build()
	var missing *domain.MissingStepsError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingStepsError, got %v", err)
	}
	if len(missing.Steps) != 1 || missing.Steps[0] != "double" {
		t.Errorf("Expected [double], got %v", missing.Steps)
	}

	if _, err := b.Implement("double", double).Build(); err != nil {
		t.Fatalf("Build() after Implement failed: %v", err)
	}
}

func TestBuilder_EmptyRecipe(t *testing.T) {
	_, err := New("bare").Build()
	if !errors.Is(err, domain.ErrNoSteps) {
		t.Fatalf("Expected ErrNoSteps, got %v", err)
	}
}

func TestBuilder_RepeatedStepRunsTwice(t *testing.T) {
	def, err := New("twice").
		Step("double", double).
		Declare("double").
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if got := len(def.Steps()); got != 2 {
		t.Errorf("Expected the sequence to keep both occurrences, got %d", got)
	}
}

func TestBuilder_MustBuildPanicsOnInvalid(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustBuild to panic on a malformed recipe")
		}
	}()
	New("broken").Declare("ghost").MustBuild()
}
