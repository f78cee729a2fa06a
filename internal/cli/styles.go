package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// Style definitions shared by the static output and the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	widgetStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	severityCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityWarning  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityInfo     = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	alertHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	alertMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	alertLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

func styleForSeverity(sev models.Severity) lipgloss.Style {
	switch sev {
	case models.SeverityCritical:
		return severityCritical
	case models.SeverityWarning:
		return severityWarning
	case models.SeverityInfo:
		return severityInfo
	default:
		return lipgloss.NewStyle()
	}
}

func styleForAlert(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return alertHigh
	case "medium":
		return alertMedium
	case "low":
		return alertLow
	default:
		return lipgloss.NewStyle()
	}
}
