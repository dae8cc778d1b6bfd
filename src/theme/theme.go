// Package theme holds the terminal styles for chat rendering.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme represents a color theme
var CurrentTheme = struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
}{
	User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00afff")),
	Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d787")),
	System:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
	Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
	Error:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f5f")),
}

// RoleLabel renders a role name in its themed style.
func RoleLabel(role string) string {
	switch role {
	case "user":
		return CurrentTheme.User.Render("you")
	case "assistant":
		return CurrentTheme.Assistant.Render("assistant")
	default:
		return CurrentTheme.System.Render(role)
	}
}
