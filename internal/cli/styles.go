package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors used by the text views. Adaptive colors keep the output readable on
// both light and dark terminals.
var (
	headingColor = lipgloss.AdaptiveColor{Light: "#1F4E79", Dark: "#7AB8F5"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	addedColor   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}
	removedColor = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
	changedColor = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFB74D"}
)

// Styles for headings, secondary text and status markers. lipgloss drops
// the colors when stdout is not a terminal, so piped output stays plain.
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(headingColor).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(headingColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	addedStyle = lipgloss.NewStyle().
			Foreground(addedColor)

	removedStyle = lipgloss.NewStyle().
			Foreground(removedColor)

	changedStyle = lipgloss.NewStyle().
			Foreground(changedColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(changedColor).
			Bold(true)

	listItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)
