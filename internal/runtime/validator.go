package runtime

import "github.com/cloud8421/recipe/pkg/domain"

// Validate checks a definition ahead of any run: a step list must be
// declared, and every declared name must resolve to an implementation.
// Names that do not are collected into a MissingStepsError in
// declaration order. This is a definition-time gate, not a per-run
// check; malformed definitions should never reach Run.
func Validate(def domain.Definition) error {
	if def == nil {
		return domain.ErrNoRecipe
	}

	steps := def.Steps()
	if steps == nil {
		return domain.ErrNoSteps
	}

	var missing []string
	for _, name := range steps {
		if fn, ok := def.Step(name); !ok || fn == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingStepsError{Recipe: def.Name(), Steps: missing}
	}

	return nil
}
