// Package ui renders a traversal result to the terminal with
// github.com/charmbracelet/lipgloss, following the adaptive-color style
// palette defined in cmd/bd-examples/main.go (pass/warn/fail/muted/accent
// styles keyed to light/dark terminal backgrounds).
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Hidde-Heijnen/know-your-rights/internal/types"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	})
	boldStyle = lipgloss.NewStyle().Bold(true)
)

// RenderResult formats a completed Result as a colored terminal report:
// a header, the ranked relevant nodes with their scores, and the final
// recommendation.
func RenderResult(result *types.Result) string {
	var b strings.Builder

	fmt.Fprintln(&b, boldStyle.Render(fmt.Sprintf("Run %s — %d relevant node(s)", result.RunID, len(result.RelevantNodes))))
	fmt.Fprintln(&b, mutedStyle.Render(result.CompletedAt.Format("2006-01-02 15:04:05")))
	fmt.Fprintln(&b)

	for i, node := range result.RelevantNodes {
		fmt.Fprintf(&b, "%s %s\n", accentStyle.Render(fmt.Sprintf("%d.", i+1)), boldStyle.Render(node.Title))
		fmt.Fprintf(&b, "   %s\n", scoreStyle(node.RelevanceScore).Render(fmt.Sprintf("score %.2f", node.RelevanceScore)))
		if node.Reasoning != "" {
			fmt.Fprintf(&b, "   %s\n", mutedStyle.Render(node.Reasoning))
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, boldStyle.Render("Recommendation"))
	fmt.Fprintln(&b, result.FinalRecommendation)

	return b.String()
}

func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score > 0.7:
		return passStyle
	case score > 0.3:
		return warnStyle
	default:
		return failStyle
	}
}

// RenderWarn renders a single-line warning message.
func RenderWarn(msg string) string {
	return warnStyle.Render(msg)
}

// RenderFail renders a single-line failure message, matching the
// teacher's failStyle.Render("Error: "+err) convention in main().
func RenderFail(msg string) string {
	return failStyle.Render(msg)
}

// RenderAccent renders a single-line accented status message.
func RenderAccent(msg string) string {
	return accentStyle.Render(msg)
}
