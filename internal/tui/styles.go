package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/creamcroissant/vpnadmin/internal/service"
)

var (
	// Colors
	colorPrimary = lipgloss.Color("#0EA5E9")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDanger  = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleTabActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	styleTabInactive = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 1)

	styleTableHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary).
				Padding(0, 1)

	styleTableRow = lipgloss.NewStyle().
			Padding(0, 1)

	styleTableRowSelected = lipgloss.NewStyle().
				Background(lipgloss.Color("#1F2937")).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	styleDetailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)

	styleConfirm = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true).
			Padding(0, 1)

	styleError = lipgloss.NewStyle().
			Foreground(colorDanger).
			Padding(0, 1)

	styleStatus = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Padding(0, 1)
)

func styleMuted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorMuted)
}

// BandStyle 负载颜色：绿/黄/红
func BandStyle(band service.UtilizationBand) lipgloss.Style {
	switch band {
	case service.BandRed:
		return lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	case service.BandYellow:
		return lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	case service.BandGreen:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	}
	return styleMuted()
}

// StatusStyle colours an ad callback status.
func StatusStyle(status string) lipgloss.Style {
	switch strings.ToLower(status) {
	case "success", "completed", "rewarded":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "failed", "error":
		return lipgloss.NewStyle().Foreground(colorDanger)
	}
	return lipgloss.NewStyle().Foreground(colorWarning)
}

// ProgressBar renders a simple progress bar
func ProgressBar(percent float64, width int, style lipgloss.Style) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(float64(width) * percent / 100)
	return style.Render(strings.Repeat("█", filled)) + styleMuted().Render(strings.Repeat("░", width-filled))
}
