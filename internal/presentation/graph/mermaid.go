package graph

import (
	"fmt"
	"strings"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Overlay contains run outcome data to visualize on the flowchart.
type Overlay struct {
	CompletedSteps []string
	FailedStep     string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a
// recipe manifest. The chain is linear by construction:
// - Start: ((Circle)) labelled with the recipe name
// - Steps: [Rectangle], one per step in execution order
// - Result: ((Circle)) terminator
// - Error handler: [[Subroutine]], reached by a dotted edge from every
//   step, since any step can fail the run.
// It also applies overlay styles (Completed/Failed) if provided.
func GenerateMermaid(m *domain.Manifest, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    run((\"%s\"))\n", m.Name))

	prev := "run"
	for _, step := range m.Steps {
		safeID := sanitizeMermaidID(step)
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, step))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, safeID))
		sb.WriteString(fmt.Sprintf("    %s -. failure .-> on_error\n", safeID))
		prev = safeID
	}

	sb.WriteString("    result((\"result\"))\n")
	sb.WriteString(fmt.Sprintf("    %s --> result\n", prev))
	sb.WriteString("    on_error[[\"on_error\"]]\n")

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef completed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")

		// Deduplicate completed steps (using safeIDs)
		completedSet := make(map[string]bool)
		for _, step := range overlay.CompletedSteps {
			safeID := sanitizeMermaidID(step)
			if !completedSet[safeID] && safeID != "" {
				completedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s completed;\n", safeID))
			}
		}

		if overlay.FailedStep != "" {
			safeFailed := sanitizeMermaidID(overlay.FailedStep)
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", safeFailed))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
