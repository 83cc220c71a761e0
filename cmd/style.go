package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/JakeFAU/apodex/internal/app"
)

// Colors degrade to plain text when stdout is not a terminal.
var noticeStyles = map[app.Level]lipgloss.Style{
	app.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	app.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	app.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

func renderNotice(n app.Notice) string {
	if style, ok := noticeStyles[n.Level]; ok {
		return style.Render(n.String())
	}
	return n.String()
}
