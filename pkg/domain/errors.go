package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoRecipe is returned when a run or validation is attempted with a nil definition.
var ErrNoRecipe = errors.New("no recipe given")

// ErrNoSteps is returned by validation when a definition declares no step list at all.
var ErrNoSteps = errors.New("no steps defined")

// ErrRecipeNotFound is returned when a named recipe is not in the catalog.
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrRunNotFound is returned when a run record cannot be found in a store.
var ErrRunNotFound = errors.New("run not found")

// MissingStepsError reports declared step names that have no
// implementation, in declaration order.
type MissingStepsError struct {
	Recipe string
	Steps  []string
}

func (e *MissingStepsError) Error() string {
	return fmt.Sprintf("recipe %q is missing steps: %s", e.Recipe, strings.Join(e.Steps, ", "))
}

// AmbiguousResultError reports a step that returned neither a new state
// nor an error. The engine treats it as an ordinary step failure.
type AmbiguousResultError struct {
	Step string
}

func (e *AmbiguousResultError) Error() string {
	return fmt.Sprintf("step %q returned neither a state nor an error", e.Step)
}
