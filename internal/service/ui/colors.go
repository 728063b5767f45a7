package ui

import "github.com/charmbracelet/lipgloss"

// Styles use the basic ANSI palette so they follow the terminal theme.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// SectionStyle marks config sections and console notices.
	SectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
)

// Section renders a "# title" header line.
func Section(title string) string {
	return SectionStyle.Render("# " + title)
}
