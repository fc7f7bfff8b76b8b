package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

type orderCancelledMsg struct {
	order domain.Order
	err   error
}

type orderDetailScreen struct {
	app        *App
	detail     *console.OrderDetail
	confirming bool
	cancelling bool
	notice     string
	err        error
}

func newOrderDetailScreen(a *App, id int64) *orderDetailScreen {
	return &orderDetailScreen{app: a, detail: console.NewOrderDetail(a.gw, id, a.log)}
}

func (s *orderDetailScreen) init() tea.Cmd {
	a := s.app
	return func() tea.Msg {
		s.detail.Load(a.ctx)
		return loadedMsg{err: s.detail.Order.State().Err}
	}
}

func (s *orderDetailScreen) close() {}

func (s *orderDetailScreen) capturing() bool { return s.confirming }

func (s *orderDetailScreen) help() []key.Binding {
	k := s.app.keys
	if s.confirming {
		return []key.Binding{k.Confirm, k.Deny}
	}
	bindings := []key.Binding{k.Back, k.Refresh}
	if st := s.detail.Order.State(); st.HasData && st.Data.Status.CanCancel() {
		bindings = append(bindings, k.CancelOrder)
	}
	return bindings
}

func (s *orderDetailScreen) cancel(order domain.Order) tea.Cmd {
	a, d := s.app, s.detail
	s.cancelling = true
	return func() tea.Msg {
		updated, err := a.lifecycle.CancelOrder(a.ctx, order)
		if err == nil {
			d.Apply(updated)
			d.Order.Invalidate(a.ctx)
		}
		return orderCancelledMsg{order: updated, err: err}
	}
}

func (s *orderDetailScreen) update(msg tea.Msg) tea.Cmd {
	k := s.app.keys
	state := s.detail.Order.State()
	switch msg := msg.(type) {
	case orderCancelledMsg:
		s.cancelling = false
		if msg.err != nil {
			s.err, s.notice = msg.err, ""
			return nil
		}
		s.err = nil
		if msg.order.Status == domain.OrderStatusCancelled {
			s.notice = "Order " + idCell("#", msg.order.ID) + " cancelled"
		} else {
			s.notice = "Order " + idCell("#", msg.order.ID) + " is now " + string(msg.order.Status)
		}
		return nil
	case tea.KeyMsg:
		if s.confirming {
			switch {
			case key.Matches(msg, k.Confirm):
				s.confirming = false
				return s.cancel(state.Data)
			case key.Matches(msg, k.Deny):
				s.confirming = false
			}
			return nil
		}
		switch {
		case key.Matches(msg, k.Back):
			return navigate(ViewOrders, 0)
		case key.Matches(msg, k.Refresh):
			return refetchCmd(s.app.ctx, s.detail.Order)
		case key.Matches(msg, k.CancelOrder):
			if !state.HasData || s.cancelling {
				return nil
			}
			if !state.Data.Status.CanCancel() {
				// rejected locally, no request is sent
				return s.cancel(state.Data)
			}
			s.confirming = true
			s.notice, s.err = "", nil
		}
	}
	return nil
}

func (s *orderDetailScreen) view(f frame) string {
	state := s.detail.Order.State()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Order "+idCell("#", s.detail.ID)) + "\n")
	banner, blocking := resourceBanner(f, "order", state)
	if blocking {
		return b.String() + banner
	}
	if banner != "" {
		b.WriteString(banner + "\n")
	}
	o := state.Data

	b.WriteString(subtitleStyle.Render("Created on "+domain.FormatDate(o.CreatedAt.Time)) + "\n\n")
	b.WriteString(headerStyle.Render("Order Status") + "  " + orderBadge(o.Status) + "\n")
	b.WriteString(renderOrderTimeline(o.Status) + "\n\n")

	b.WriteString(headerStyle.Render("Order Information") + "\n")
	for _, kv := range [][2]string{
		{"Order ID", idCell("#", o.ID)},
		{"Created Date", domain.FormatDateTime(o.CreatedAt.Time)},
		{"Total Items", itoa(o.TotalUnits())},
		{"Product Types", itoa(o.ProductTypes())},
	} {
		b.WriteString("  " + mutedStyle.Render(pad(kv[0]+":", 16)) + textStyle.Render(kv[1]) + "\n")
	}
	if o.Status == domain.OrderStatusPicking {
		b.WriteString("  " + warningStyle.Render("Picking in progress. Press 4 to view picking tasks.") + "\n")
	}

	b.WriteString("\n" + headerStyle.Render("Order Items") + "\n")
	if len(o.OrderLineItems) == 0 {
		b.WriteString(mutedStyle.Render("  No items in this order") + "\n")
	} else {
		cols := []column{{"Product SKU", 16}, {"Quantity", 10}, {"Line Total", 12}}
		progress := o.Status.ShowsPickProgress()
		if progress {
			cols = append(cols, column{"Pick", 10})
		}
		pick := domain.PickPending
		if o.Status == domain.OrderStatusCompleted {
			pick = domain.PickPicked
		}
		rows := make([][]string, 0, len(o.OrderLineItems))
		for _, item := range o.OrderLineItems {
			row := []string{item.ProductSKU, itoa(item.Quantity), itoa(item.Quantity) + " units"}
			if progress {
				row = append(row, pickBadge(pick))
			}
			rows = append(rows, row)
		}
		b.WriteString(renderTable(cols, rows, -1) + "\n")
		b.WriteString("  " + headerStyle.Render("Order Total: ") + titleStyle.Render(itoa(o.TotalUnits())+" units") + "\n")
	}

	switch {
	case s.confirming:
		b.WriteString("\n" + confirmBox("Cancel Order "+idCell("#", o.ID)+"?"))
	case s.cancelling:
		b.WriteString("\n" + f.spin + " Cancelling...")
	case s.err != nil:
		b.WriteString("\n" + errorStyle.Render(domain.Message(s.err)))
	case s.notice != "":
		b.WriteString("\n" + successStyle.Render(s.notice))
	}
	return b.String()
}
