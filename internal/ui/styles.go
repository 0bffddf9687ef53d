package ui

import "github.com/charmbracelet/lipgloss"

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")) // Dim gray
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	addedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	touchedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	revertedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	confirmStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	confirmKeyHint = lipgloss.NewStyle().Faint(true)
)
