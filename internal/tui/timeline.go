package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

func stepGlyph(state domain.StepState) (string, lipgloss.Color) {
	switch state {
	case domain.StepDone:
		return "✔", colorSuccess
	case domain.StepCurrent:
		return "◉", colorBlue
	case domain.StepCancelled:
		return "✘", colorError
	case domain.StepPending:
		return "○", colorOverlay0
	}
	return "?", colorText
}

func renderOrderTimeline(status domain.OrderStatus) string {
	steps := domain.Timeline(status)
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		glyph, color := stepGlyph(step.State)
		parts = append(parts, lipgloss.NewStyle().Foreground(color).Render(glyph+" "+string(step.Status)))
	}
	line := strings.Join(parts, mutedStyle.Render(" ── "))
	bar := progressBar(domain.TimelineProgress(status), 40) + " " + mutedStyle.Render(itoa(domain.TimelineProgress(status))+"%")
	if status == domain.OrderStatusCancelled {
		bar = errorStyle.Render("✘ Order Cancelled")
	}
	return line + "\n" + bar
}

func renderTaskTimeline(task domain.PickingTask) string {
	created := successStyle.Render("✔ Created") + " " + mutedStyle.Render(domain.FormatDateTime(task.CreatedAt.Time))
	completed := lipgloss.NewStyle().Foreground(colorOverlay0).Render("○ Completed")
	if task.Status == domain.TaskStatusDone {
		completed = successStyle.Render("✔ Completed")
	}
	return created + mutedStyle.Render(" ── ") + completed + "\n" +
		progressBar(task.Status.Progress(), 40) + " " + mutedStyle.Render(itoa(task.Status.Progress())+"%")
}
