package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

type composeMode int

const (
	modeBrowse composeMode = iota
	modeQuantity
	modeDraft
)

type (
	draftMsg struct {
		draft console.Draft
		err   error
	}
	orderSubmittedMsg struct {
		order domain.Order
		err   error
	}
)

// composeScreen builds an order: pick a product, type a quantity, add it to the draft and
// submit once the draft is complete.
type composeScreen struct {
	app       *App
	mode      composeMode
	search    textinput.Model
	quantity  textinput.Model
	cursor    int
	lineIdx   int
	selection console.Selection
	draft     console.Draft
	busy      bool
	err       error
	notice    string
}

func newComposeScreen(a *App) *composeScreen {
	s := &composeScreen{
		app:      a,
		search:   newInput("Search products by name or SKU", 64),
		quantity: newInput("1", 6),
	}
	s.selection.Reset()
	s.search.Focus()
	return s
}

func (s *composeScreen) init() tea.Cmd {
	return syncCmd(s.app.ctx, s.app.products)
}

func (s *composeScreen) close() {}

func (s *composeScreen) capturing() bool { return true }

func (s *composeScreen) help() []key.Binding {
	k := s.app.keys
	switch s.mode {
	case modeQuantity:
		return []key.Binding{key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add to order")), k.Back}
	case modeDraft:
		return []key.Binding{k.Up, k.Down, k.Increase, k.Decrease, k.RemoveLine, k.NextField, k.Submit}
	default:
		return []key.Binding{k.Up, k.Down, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")), k.NextField, k.Submit, k.Back}
	}
}

func (s *composeScreen) matches() []domain.Product {
	return console.SearchProducts(s.app.products.State().Data, s.search.Value())
}

func (s *composeScreen) setMode(m composeMode) tea.Cmd {
	s.mode = m
	s.search.Blur()
	s.quantity.Blur()
	switch m {
	case modeBrowse:
		return s.search.Focus()
	case modeQuantity:
		return s.quantity.Focus()
	case modeDraft:
		s.lineIdx = clamp(s.lineIdx, s.draft.Len())
	}
	return nil
}

func (s *composeScreen) add() tea.Cmd {
	if s.selection.Product == nil {
		return nil
	}
	q, err := strconv.Atoi(strings.TrimSpace(s.quantity.Value()))
	if err != nil {
		s.err = domain.ErrInvalidQuantity
		return nil
	}
	s.selection.Quantity = q
	a, draft, product := s.app, s.draft, *s.selection.Product
	s.busy, s.err, s.notice = true, nil, ""
	return func() tea.Msg {
		next, err := a.composer.Add(a.ctx, draft, product, q)
		return draftMsg{draft: next, err: err}
	}
}

func (s *composeScreen) setLineQuantity(delta int) tea.Cmd {
	lines := s.draft.Lines()
	if len(lines) == 0 {
		return nil
	}
	line := lines[clamp(s.lineIdx, len(lines))]
	a, draft := s.app, s.draft
	s.busy, s.err, s.notice = true, nil, ""
	return func() tea.Msg {
		next, err := a.composer.UpdateQuantity(a.ctx, draft, line.SKU, line.Quantity+delta)
		return draftMsg{draft: next, err: err}
	}
}

func (s *composeScreen) submit() tea.Cmd {
	a, draft := s.app, s.draft
	s.busy, s.err, s.notice = true, nil, ""
	return func() tea.Msg {
		order, err := a.composer.Submit(a.ctx, draft)
		if err == nil {
			a.orders.Invalidate(a.ctx)
			a.products.Invalidate(a.ctx)
		}
		return orderSubmittedMsg{order: order, err: err}
	}
}

func (s *composeScreen) update(msg tea.Msg) tea.Cmd {
	k := s.app.keys
	switch msg := msg.(type) {
	case draftMsg:
		s.busy = false
		// a rejected step returns the draft unchanged, so it is always safe to keep
		s.draft = msg.draft
		s.lineIdx = clamp(s.lineIdx, s.draft.Len())
		if msg.err != nil {
			s.err = msg.err
			return nil
		}
		if s.mode == modeQuantity {
			s.notice = s.selection.Product.Name + " added to order"
			s.selection.Reset()
			s.quantity.SetValue("")
			return s.setMode(modeBrowse)
		}
		return nil
	case orderSubmittedMsg:
		s.busy = false
		if msg.err != nil {
			s.err = msg.err
			return nil
		}
		return navigate(ViewOrderDetail, msg.order.ID)
	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		if key.Matches(msg, k.Submit) {
			return s.submit()
		}
		switch s.mode {
		case modeQuantity:
			return s.updateQuantity(msg)
		case modeDraft:
			return s.updateDraft(msg)
		default:
			return s.updateBrowse(msg)
		}
	}
	return nil
}

func (s *composeScreen) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	k := s.app.keys
	items := s.matches()
	switch {
	case msg.Type == tea.KeyEsc:
		if s.search.Value() != "" {
			s.search.SetValue("")
			s.cursor = 0
			return nil
		}
		return navigate(ViewOrders, 0)
	case msg.Type == tea.KeyUp:
		s.cursor = clamp(s.cursor-1, len(items))
		return nil
	case msg.Type == tea.KeyDown:
		s.cursor = clamp(s.cursor+1, len(items))
		return nil
	case key.Matches(msg, k.NextField):
		if s.draft.IsEmpty() {
			return nil
		}
		return s.setMode(modeDraft)
	case msg.Type == tea.KeyEnter:
		if len(items) == 0 {
			return nil
		}
		s.selection.Select(items[clamp(s.cursor, len(items))])
		s.quantity.SetValue(itoa(s.selection.Quantity))
		s.err, s.notice = nil, ""
		return s.setMode(modeQuantity)
	case msg.String() == "r" && s.app.products.State().Err != nil && !s.app.products.State().HasData:
		return refetchCmd(s.app.ctx, s.app.products)
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.cursor = 0
	return cmd
}

func (s *composeScreen) updateQuantity(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		s.selection.Reset()
		s.err = nil
		return s.setMode(modeBrowse)
	case tea.KeyEnter:
		return s.add()
	}
	var cmd tea.Cmd
	s.quantity, cmd = s.quantity.Update(msg)
	return cmd
}

func (s *composeScreen) updateDraft(msg tea.KeyMsg) tea.Cmd {
	k := s.app.keys
	switch {
	case key.Matches(msg, k.NextField), msg.Type == tea.KeyEsc:
		return s.setMode(modeBrowse)
	case key.Matches(msg, k.Up):
		s.lineIdx = clamp(s.lineIdx-1, s.draft.Len())
	case key.Matches(msg, k.Down):
		s.lineIdx = clamp(s.lineIdx+1, s.draft.Len())
	case key.Matches(msg, k.Increase):
		return s.setLineQuantity(1)
	case key.Matches(msg, k.Decrease):
		return s.setLineQuantity(-1)
	case key.Matches(msg, k.RemoveLine):
		lines := s.draft.Lines()
		if len(lines) > 0 {
			s.draft = s.app.composer.Remove(s.draft, lines[clamp(s.lineIdx, len(lines))].SKU)
			s.lineIdx = clamp(s.lineIdx, s.draft.Len())
			if s.draft.IsEmpty() {
				return s.setMode(modeBrowse)
			}
		}
	}
	return nil
}

func (s *composeScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create New Order") + "  " + subtitleStyle.Render("Add products to create a new order") + "\n\n")

	state := s.app.products.State()
	banner, blocking := resourceBanner(f, "products", state)
	if blocking {
		return b.String() + banner
	}
	if banner != "" {
		b.WriteString(banner + "\n")
	}

	b.WriteString(headerStyle.Render("Add Products") + "\n" + s.search.View() + "\n")
	items := s.matches()
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("  No products found") + "\n")
	} else {
		const maxResults = 8
		start := 0
		if s.cursor >= maxResults {
			start = s.cursor - maxResults + 1
		}
		end := min(start+maxResults, len(items))
		rows := make([][]string, 0, end-start)
		for _, p := range items[start:end] {
			rows = append(rows, []string{p.SKU, p.Name, p.LocationCode, stockCell(p.QuantityInStock, s.app.cfg.UI.LowStockThreshold) + " in stock"})
		}
		cursor := -1
		if s.mode == modeBrowse {
			cursor = s.cursor - start
		}
		b.WriteString(renderTable([]column{{"SKU", 14}, {"Name", 28}, {"Location", 10}, {"Stock", 14}}, rows, cursor) + "\n")
	}

	if s.mode == modeQuantity && s.selection.Product != nil {
		p := s.selection.Product
		b.WriteString("\n" + headerStyle.Render("Quantity for "+p.Name+" ("+p.SKU+")") + "  " +
			mutedStyle.Render(itoa(p.QuantityInStock)+" available") + "\n" + s.quantity.View() + "\n")
	}

	b.WriteString("\n" + headerStyle.Render("Order Summary") + "\n")
	if s.draft.IsEmpty() {
		b.WriteString(mutedStyle.Render("  No products added yet") + "\n")
	} else {
		lines := s.draft.Lines()
		rows := make([][]string, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, []string{l.SKU, l.ProductName, itoa(l.Quantity), mutedStyle.Render(itoa(l.AvailableStock) + " available")})
		}
		cursor := -1
		if s.mode == modeDraft {
			cursor = clamp(s.lineIdx, len(rows))
		}
		b.WriteString(renderTable([]column{{"SKU", 14}, {"Product", 28}, {"Qty", 6}, {"Available", 14}}, rows, cursor) + "\n")
		b.WriteString("  " + textStyle.Render("Total Items: "+itoa(s.draft.TotalUnits())+" · Product Types: "+itoa(s.draft.Len())) + "\n")
	}

	switch {
	case s.busy:
		b.WriteString("\n" + f.spin + " Working...")
	case s.err != nil:
		b.WriteString("\n" + errorStyle.Render(domain.Message(s.err)))
	case s.notice != "":
		b.WriteString("\n" + successStyle.Render(s.notice))
	}
	return b.String()
}
