package domain

// Manifest describes a recipe as declared by a catalog: the step
// sequence plus presentation metadata. Step implementations are resolved
// separately, against a registry, when the manifest is bound into a
// runnable Recipe.
type Manifest struct {
	// Name is the catalog identifier.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Title is an optional human-friendly heading.
	Title string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`

	// Steps lists the step names in execution order.
	Steps []string `json:"steps" yaml:"steps" mapstructure:"steps"`

	// Result optionally names the state value surfaced as the run's
	// result. When empty, runs of this manifest return the full values
	// map.
	Result string `json:"result,omitempty" yaml:"result,omitempty" mapstructure:"result"`

	// Tags classify the recipe for listing and filtering.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`

	// Telemetry turns the observer protocol on for runs of this recipe.
	Telemetry bool `json:"telemetry,omitempty" yaml:"telemetry,omitempty" mapstructure:"telemetry"`

	// Description is the long-form markdown body.
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}
