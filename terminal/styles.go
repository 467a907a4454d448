package main

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#7D56F4")
	colorUser    = lipgloss.Color("#04B575")
	colorText    = lipgloss.Color("#E4E4E4")
	colorTextDim = lipgloss.Color("#7A7A7A")
	colorError   = lipgloss.Color("#FF5F87")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorUser)
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	messageStyle        = lipgloss.NewStyle().Foreground(colorText).PaddingLeft(2)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTextDim).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
)
