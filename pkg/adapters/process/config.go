package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StepConfig represents the configuration for an external command step.
type StepConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`

	// SaveTo names the state key the command's output is assigned to.
	// Defaults to the step name.
	SaveTo string `yaml:"save_to" json:"save_to"`
}

// ConfigFile represents the structure of steps.yaml
type ConfigFile struct {
	Steps []StepConfig `yaml:"steps" json:"steps"`
}

// LoadSteps reads a configuration file (YAML or JSON) and returns a map
// of step names to configs. A missing file means no steps configured.
func LoadSteps(path string) (map[string]StepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]StepConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read steps config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse steps.json: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse steps.yaml: %w", err)
		}
	}

	stepMap := make(map[string]StepConfig)
	for _, step := range cfg.Steps {
		if step.Name == "" {
			continue
		}
		stepMap[step.Name] = step
	}

	return stepMap, nil
}
