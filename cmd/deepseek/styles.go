package main

import "github.com/charmbracelet/lipgloss"

var (
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	modelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)
