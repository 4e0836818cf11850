package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the chat screens.
type Styles struct {
	Title     lipgloss.Style
	Info      lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Status    lipgloss.Style
	Input     lipgloss.Style
}

func DefaultStyles() *Styles {
	var (
		primary   = lipgloss.Color("#7C3AED")
		secondary = lipgloss.Color("#06B6D4")
		muted     = lipgloss.Color("#6C7086")
		errColour = lipgloss.Color("#F38BA8")
		border    = lipgloss.Color("#45475A")
	)
	return &Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(primary),
		Info:      lipgloss.NewStyle().Foreground(muted),
		User:      lipgloss.NewStyle().Bold(true).Foreground(secondary),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")),
		Error:     lipgloss.NewStyle().Foreground(errColour),
		Status:    lipgloss.NewStyle().Italic(true).Foreground(muted),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
	}
}
