package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
)

var (
	primaryColor = lipgloss.Color("99")  // Purple
	successColor = lipgloss.Color("42")  // Green
	warningColor = lipgloss.Color("226") // Yellow
	errorColor   = lipgloss.Color("196") // Red
	mutedColor   = lipgloss.Color("245") // Gray
	accentColor  = lipgloss.Color("212") // Pink

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			PaddingLeft(1).
			MarginBottom(1)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(mutedColor).
			PaddingTop(1).
			MarginTop(1)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Bold(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(primaryColor)
)

func statusStyle(status orchestrator.PipelineStatus) lipgloss.Style {
	switch status {
	case orchestrator.PipelineCompleted:
		return lipgloss.NewStyle().Foreground(successColor).Bold(true)
	case orchestrator.PipelineInProgress:
		return lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	case orchestrator.PipelineFailed:
		return lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(mutedColor)
	}
}
