package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

type (
	taskCompletedMsg struct {
		task     domain.PickingTask
		redirect console.Redirect
		err      error
	}
	redirectMsg struct{ taskID int64 }
)

type taskDetailScreen struct {
	app        *App
	detail     *console.TaskDetail
	confirming bool
	completing bool
	completed  bool
	err        error
}

func newTaskDetailScreen(a *App, id int64) *taskDetailScreen {
	return &taskDetailScreen{app: a, detail: console.NewTaskDetail(a.gw, id, a.log)}
}

func (s *taskDetailScreen) init() tea.Cmd {
	a := s.app
	return func() tea.Msg {
		s.detail.Load(a.ctx)
		return loadedMsg{err: s.detail.Task.State().Err}
	}
}

func (s *taskDetailScreen) close() {}

func (s *taskDetailScreen) capturing() bool { return s.confirming }

func (s *taskDetailScreen) help() []key.Binding {
	k := s.app.keys
	if s.confirming {
		return []key.Binding{k.Confirm, k.Deny}
	}
	bindings := []key.Binding{k.Back, k.Refresh}
	if st := s.detail.Task.State(); st.HasData && st.Data.Status.CanComplete() && !s.completed {
		bindings = append(bindings, k.CompleteTask)
	}
	return bindings
}

func (s *taskDetailScreen) complete(task domain.PickingTask) tea.Cmd {
	a, d := s.app, s.detail
	s.completing = true
	return func() tea.Msg {
		updated, redirect, err := a.lifecycle.CompleteTask(a.ctx, task)
		if err == nil {
			d.Apply(updated)
			d.Invalidate(a.ctx)
		}
		return taskCompletedMsg{task: updated, redirect: redirect, err: err}
	}
}

func (s *taskDetailScreen) update(msg tea.Msg) tea.Cmd {
	k := s.app.keys
	state := s.detail.Task.State()
	switch msg := msg.(type) {
	case taskCompletedMsg:
		s.completing = false
		if msg.err != nil {
			s.err = msg.err
			return nil
		}
		s.completed, s.err = true, nil
		return s.app.after(msg.redirect.After, redirectMsg{taskID: msg.task.ID})
	case redirectMsg:
		if msg.taskID == s.detail.ID {
			return navigate(ViewTasks, 0)
		}
		return nil
	case tea.KeyMsg:
		if s.confirming {
			switch {
			case key.Matches(msg, k.Confirm):
				s.confirming = false
				return s.complete(state.Data)
			case key.Matches(msg, k.Deny):
				s.confirming = false
			}
			return nil
		}
		switch {
		case key.Matches(msg, k.Back):
			return navigate(ViewTasks, 0)
		case key.Matches(msg, k.Refresh):
			a, d := s.app, s.detail
			return func() tea.Msg {
				d.Invalidate(a.ctx)
				return loadedMsg{err: d.Task.State().Err}
			}
		case key.Matches(msg, k.CompleteTask):
			if !state.HasData || s.completing || s.completed {
				return nil
			}
			if !state.Data.Status.CanComplete() {
				return s.complete(state.Data)
			}
			s.confirming = true
			s.err = nil
		}
	}
	return nil
}

func (s *taskDetailScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Picking Task "+idCell("#", s.detail.ID)) + "\n")
	state := s.detail.Task.State()
	banner, blocking := resourceBanner(f, "task", state)
	if blocking {
		return b.String() + banner
	}
	if banner != "" {
		b.WriteString(banner + "\n")
	}
	t := state.Data

	b.WriteString(subtitleStyle.Render("Order "+idCell("#", t.OrderID)+" · created "+domain.FormatDate(t.CreatedAt.Time)) + "\n\n")
	b.WriteString(headerStyle.Render("Task Status") + "  " + taskBadge(t.Status) + "\n")
	b.WriteString(renderTaskTimeline(t) + "\n\n")

	b.WriteString(headerStyle.Render("Pick List") + "\n")
	order := s.detail.Order.State()
	switch lines, ok := s.detail.PickList(); {
	case ok && len(lines) == 0:
		b.WriteString(mutedStyle.Render("  No items to pick") + "\n")
	case ok:
		rows := make([][]string, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []string{l.ProductSKU, itoa(l.Quantity), pickBadge(l.Status)})
		}
		b.WriteString(renderTable([]column{{"Product SKU", 16}, {"Quantity", 10}, {"Status", 10}}, rows, -1) + "\n")
	case order.Err != nil:
		b.WriteString(errorStyle.Render("  Order details unavailable: "+domain.Message(order.Err)) + "\n")
	default:
		b.WriteString("  " + f.spin + " Loading order items...\n")
	}

	switch {
	case s.confirming:
		b.WriteString("\n" + confirmBox("Mark task "+idCell("#", t.ID)+" as completed?"))
	case s.completing:
		b.WriteString("\n" + f.spin + " Completing...")
	case s.completed:
		b.WriteString("\n" + successStyle.Render("Task completed. Returning to picking tasks..."))
	case s.err != nil:
		b.WriteString("\n" + errorStyle.Render(domain.Message(s.err)))
	}
	return b.String()
}
