package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

// Catppuccin Mocha palette
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
	headerStyle   = lipgloss.NewStyle().Foreground(colorOverlay1).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorOverlay0)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorFocus).Bold(true)
	selectedRow   = lipgloss.NewStyle().Background(colorSurface0).Foreground(colorText)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	successStyle  = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	infoStyle     = lipgloss.NewStyle().Foreground(colorInfo)

	tabStyle       = lipgloss.NewStyle().Foreground(colorSubtext0).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(colorBase).Background(colorAccent).Bold(true).Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 2).
			Width(22)

	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1)

	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Foreground(colorWarning).
			Padding(0, 1)
)

func badge(text string, fg lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(fg).Bold(true).Render(text)
}

func orderStatusColor(s domain.OrderStatus) lipgloss.Color {
	switch s {
	case domain.OrderStatusNew:
		return colorBlue
	case domain.OrderStatusAllocated:
		return colorMauve
	case domain.OrderStatusPicking:
		return colorPeach
	case domain.OrderStatusCompleted:
		return colorGreen
	case domain.OrderStatusCancelled:
		return colorRed
	}
	return colorText
}

func taskStatusColor(s domain.TaskStatus) lipgloss.Color {
	switch s {
	case domain.TaskStatusInProgress:
		return colorPeach
	case domain.TaskStatusDone:
		return colorGreen
	}
	return colorText
}

func orderBadge(s domain.OrderStatus) string {
	return badge(string(s), orderStatusColor(s))
}

func taskBadge(s domain.TaskStatus) string {
	return badge(strings.ReplaceAll(string(s), "_", " "), taskStatusColor(s))
}

func pickBadge(s domain.PickStatus) string {
	if s == domain.PickPicked {
		return badge(string(s), colorSuccess)
	}
	return badge(string(s), colorWarning)
}

// stockCell highlights quantities under the display threshold.
func stockCell(quantity, threshold int) string {
	s := itoa(quantity)
	switch {
	case quantity == 0:
		return errorStyle.Render(s)
	case quantity < threshold:
		return warningStyle.Render(s)
	default:
		return successStyle.Render(s)
	}
}

// progressBar renders pct (0..100) as a fixed width bar.
func progressBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return lipgloss.NewStyle().Foreground(colorAccent).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(colorSurface1).Render(strings.Repeat("░", width-filled))
}
