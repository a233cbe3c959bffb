// Package graph renders a flow's column graph as a Mermaid diagram.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
)

// Node pairs a column with its declared dependencies. Source columns
// carry an empty dependency list.
type Node struct {
	Name         string
	Dependencies []domain.Dependency
}

// GenerateMermaid produces a Mermaid flowchart from the column graph.
// Semantic styling:
// - Source columns: [/Parallelogram/] (external input)
// - Derived columns: [Rectangle]
// Current-temporal edges are solid, previous-temporal edges dotted.
// Self-references render as a dotted loop.
func GenerateMermaid(nodes []Node) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		if len(node.Dependencies) == 0 {
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, node.Name, closer))

		for _, dep := range node.Dependencies {
			from := sanitizeMermaidID(dep.Target)
			if dep.Self() {
				from = safeID
			}

			arrow := "-->"
			if dep.Temporal == domain.TemporalPrevious {
				arrow = "-.->"
			}
			if label := edgeLabel(dep); label != "" {
				if dep.Temporal == domain.TemporalPrevious {
					arrow = fmt.Sprintf("-. \"%s\" .->", label)
				} else {
					arrow = fmt.Sprintf("-- \"%s\" -->", label)
				}
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, safeID))
		}
	}
	return sb.String()
}

func edgeLabel(dep domain.Dependency) string {
	switch dep.Cardinality {
	case domain.CardinalityAll:
		return "all"
	case domain.CardinalityWindow:
		return fmt.Sprintf("window %d", dep.Window)
	default:
		return ""
	}
}

// sanitizeMermaidID strips characters Mermaid cannot use in node IDs.
func sanitizeMermaidID(id string) string {
	replacer := strings.NewReplacer("/", "_", ".", "_", " ", "_", "-", "_")
	return replacer.Replace(id)
}
