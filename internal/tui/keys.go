package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Dashboard key.Binding
	Products  key.Binding
	Orders    key.Binding
	Tasks     key.Binding
	Compose   key.Binding

	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Back    key.Binding
	Refresh key.Binding

	Search   key.Binding
	LowStock key.Binding
	Filter   key.Binding
	Sort     key.Binding
	Reverse  key.Binding

	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding

	CancelOrder  key.Binding
	CompleteTask key.Binding
	Confirm      key.Binding
	Deny         key.Binding

	NextField   key.Binding
	PrevField   key.Binding
	Increase    key.Binding
	Decrease    key.Binding
	RemoveLine  key.Binding
	Submit      key.Binding
	GenerateSKU key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Dashboard: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard")),
		Products:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "products")),
		Orders:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "orders")),
		Tasks:     key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "tasks")),
		Compose:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new order")),

		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),

		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		LowStock: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "low stock")),
		Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Reverse:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order")),

		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),

		CancelOrder:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel order")),
		CompleteTask: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		Confirm:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		Deny:         key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),

		NextField:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		PrevField:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
		Increase:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more")),
		Decrease:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less")),
		RemoveLine:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		Submit:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "submit")),
		GenerateSKU: key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "generate sku")),
	}
}

func (k keyMap) global() []key.Binding {
	return []key.Binding{k.Dashboard, k.Products, k.Orders, k.Tasks, k.Compose, k.Quit}
}
