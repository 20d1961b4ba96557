package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles shared by all screens: green for
// success, red for failures and expired tickets, unstyled for neutral
// text.
type Theme struct {
	Title    lipgloss.Style
	TabOn    lipgloss.Style
	TabOff   lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Success  lipgloss.Style
	Alert    lipgloss.Style
	Faint    lipgloss.Style
	Checkbox lipgloss.Style
}

var DefaultTheme = Theme{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
	TabOn:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Underline(true),
	TabOff:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	Focused:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
	Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	Alert:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	Faint:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Checkbox: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
}
