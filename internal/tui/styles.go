package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#D97706")
	muted   = lipgloss.Color("#6B7280")
	credit  = lipgloss.Color("#16A34A")
	debit   = lipgloss.Color("#DC2626")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	messageStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Width(10).Foreground(muted)
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	creditStyle  = lipgloss.NewStyle().Bold(true).Foreground(credit)
	debitStyle   = lipgloss.NewStyle().Bold(true).Foreground(debit)
	errorStyle   = lipgloss.NewStyle().Foreground(debit)
	successStyle = lipgloss.NewStyle().Foreground(credit)
	helpStyle    = lipgloss.NewStyle().Foreground(muted)
)
