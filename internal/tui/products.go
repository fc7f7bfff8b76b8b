package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

var productSortFields = []console.SortField{console.SortByName, console.SortBySKU, console.SortByStock}

type productDeletedMsg struct {
	sku string
	err error
}

type productsScreen struct {
	app       *App
	search    textinput.Model
	searching bool
	lowOnly   bool
	sortIdx   int
	asc       bool
	cursor    int
	deleting  *domain.Product
	notice    string
	noticeErr bool
}

func newProductsScreen(a *App) *productsScreen {
	return &productsScreen{app: a, search: newInput("Search by name or SKU", 64), asc: true}
}

func (s *productsScreen) init() tea.Cmd {
	return syncCmd(s.app.ctx, s.app.products)
}

func (s *productsScreen) close() {}

func (s *productsScreen) capturing() bool {
	return s.searching || s.deleting != nil
}

func (s *productsScreen) help() []key.Binding {
	k := s.app.keys
	if s.deleting != nil {
		return []key.Binding{k.Confirm, k.Deny}
	}
	if s.searching {
		return []key.Binding{k.Back}
	}
	return []key.Binding{k.Up, k.Down, k.Search, k.LowStock, k.Sort, k.Reverse, k.Add, k.Edit, k.Delete, k.Refresh}
}

// visible is the product list after search, low-stock filter and sort.
func (s *productsScreen) visible() []domain.Product {
	filtered := console.FilterProducts(s.app.products.State().Data, s.search.Value(), s.lowOnly)
	sorted, err := console.SortProducts(filtered, productSortFields[s.sortIdx], s.asc)
	if err != nil {
		return filtered
	}
	return sorted
}

func (s *productsScreen) update(msg tea.Msg) tea.Cmd {
	a := s.app
	k := a.keys
	switch msg := msg.(type) {
	case productDeletedMsg:
		if msg.err != nil {
			s.notice, s.noticeErr = domain.Message(msg.err), true
		} else {
			s.notice, s.noticeErr = "Product "+msg.sku+" deleted", false
		}
		return nil
	case tea.KeyMsg:
		if s.deleting != nil {
			switch {
			case key.Matches(msg, k.Confirm):
				p := *s.deleting
				s.deleting = nil
				return func() tea.Msg {
					return productDeletedMsg{sku: p.SKU, err: a.catalog.Delete(a.ctx, p.ID)}
				}
			case key.Matches(msg, k.Deny):
				s.deleting = nil
			}
			return nil
		}
		if s.searching {
			if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
				s.searching = false
				s.search.Blur()
				return nil
			}
			var cmd tea.Cmd
			s.search, cmd = s.search.Update(msg)
			s.cursor = 0
			return cmd
		}

		items := s.visible()
		switch {
		case key.Matches(msg, k.Up):
			s.cursor = clamp(s.cursor-1, len(items))
		case key.Matches(msg, k.Down):
			s.cursor = clamp(s.cursor+1, len(items))
		case key.Matches(msg, k.Search):
			s.searching = true
			return s.search.Focus()
		case key.Matches(msg, k.LowStock):
			s.lowOnly = !s.lowOnly
			s.cursor = 0
		case key.Matches(msg, k.Sort):
			s.sortIdx = (s.sortIdx + 1) % len(productSortFields)
		case key.Matches(msg, k.Reverse):
			s.asc = !s.asc
		case key.Matches(msg, k.Add):
			return navigate(ViewProductForm, 0)
		case key.Matches(msg, k.Edit), key.Matches(msg, k.Open):
			if len(items) > 0 {
				return navigate(ViewProductForm, items[clamp(s.cursor, len(items))].ID)
			}
		case key.Matches(msg, k.Delete):
			if len(items) > 0 {
				p := items[clamp(s.cursor, len(items))]
				s.deleting = &p
				s.notice = ""
			}
		case key.Matches(msg, k.Refresh):
			return refetchCmd(a.ctx, a.products)
		}
	}
	return nil
}

func (s *productsScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Products") + "  " + subtitleStyle.Render("Manage your inventory products") + "\n")

	state := s.app.products.State()
	banner, blocking := resourceBanner(f, "products", state)
	if blocking {
		return b.String() + banner
	}
	if banner != "" {
		b.WriteString(banner + "\n")
	}

	b.WriteString(s.search.View() + "\n")
	items := s.visible()
	meta := []string{itoa(len(items)) + " of " + itoa(len(state.Data)) + " products", sortLabel(productSortFields[s.sortIdx], s.asc)}
	if s.lowOnly {
		meta = append(meta, warningStyle.Render("low stock only"))
	}
	b.WriteString(mutedStyle.Render(strings.Join(meta, " · ")) + "\n\n")

	if len(items) == 0 {
		if s.search.Value() != "" || s.lowOnly {
			b.WriteString(mutedStyle.Render("  No products match the current filters"))
		} else {
			b.WriteString(mutedStyle.Render("  No products yet. Press a to add one."))
		}
	} else {
		rows := make([][]string, 0, len(items))
		for _, p := range items {
			rows = append(rows, []string{
				p.SKU,
				p.Name,
				p.LocationCode,
				stockCell(p.QuantityInStock, s.app.cfg.UI.LowStockThreshold),
			})
		}
		b.WriteString(renderTable([]column{{"SKU", 14}, {"Name", 30}, {"Location", 10}, {"Stock", 8}}, rows, clamp(s.cursor, len(rows))))
	}

	if s.deleting != nil {
		b.WriteString("\n\n" + confirmBox("Delete product "+s.deleting.SKU+" ("+s.deleting.Name+")?"))
	}
	if s.notice != "" {
		style := successStyle
		if s.noticeErr {
			style = errorStyle
		}
		b.WriteString("\n\n" + style.Render(s.notice))
	}
	return b.String()
}
