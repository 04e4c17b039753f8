package loam

// ManifestMetadata represents the front matter of a recipe manifest.
// It uses "mapstructure" tags to match standard front-matter/YAML keys.
type ManifestMetadata struct {
	Name   string   `json:"name" mapstructure:"name"`
	Title  string   `json:"title" mapstructure:"title"`
	Steps  []string `json:"steps" mapstructure:"steps"`
	Result string   `json:"result" mapstructure:"result"`
	Tags   []string `json:"tags" mapstructure:"tags"`

	// Telemetry enables observer callbacks for runs of this recipe
	// unless the caller overrides it per run.
	Telemetry bool `json:"telemetry" mapstructure:"telemetry"`
}
