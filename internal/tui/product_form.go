package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

const (
	fieldName = iota
	fieldSKU
	fieldLocation
	fieldQuantity
	fieldCount
)

var formFieldNames = [fieldCount]string{"name", "sku", "locationCode", "quantityInStock"}

type productSavedMsg struct {
	product domain.Product
	err     error
}

// productFormScreen adds a product (id 0) or edits an existing one.
type productFormScreen struct {
	app     *App
	id      int64
	product *console.Resource[domain.Product]
	filled  bool

	inputs  [fieldCount]textinput.Model
	focus   int
	autoSKU bool
	saving  bool

	fieldErr map[string]string
	err      error
}

func newProductFormScreen(a *App, id int64) *productFormScreen {
	s := &productFormScreen{app: a, id: id, autoSKU: id == 0, fieldErr: map[string]string{}}
	s.inputs[fieldName] = newInput("Enter product name", 120)
	s.inputs[fieldSKU] = newInput("Enter or generate SKU", 32)
	s.inputs[fieldLocation] = newInput("e.g. A-01-03", 32)
	s.inputs[fieldQuantity] = newInput("0", 9)
	s.inputs[fieldQuantity].SetValue("0")
	s.inputs[fieldName].Focus()
	if id != 0 {
		gw := a.gw
		s.product = console.NewResource("product", func(ctx context.Context) (domain.Product, error) {
			return gw.GetProduct(ctx, id)
		}, a.log)
	}
	return s
}

func (s *productFormScreen) init() tea.Cmd {
	if s.product == nil {
		return nil
	}
	a := s.app
	return func() tea.Msg {
		s.product.Load(a.ctx, strconv.FormatInt(s.id, 10))
		return loadedMsg{err: s.product.State().Err}
	}
}

func (s *productFormScreen) close() {}

func (s *productFormScreen) capturing() bool { return true }

func (s *productFormScreen) help() []key.Binding {
	k := s.app.keys
	return []key.Binding{k.NextField, k.PrevField, k.GenerateSKU, k.Submit, k.Back}
}

func (s *productFormScreen) fill(p domain.Product) {
	s.inputs[fieldName].SetValue(p.Name)
	s.inputs[fieldSKU].SetValue(p.SKU)
	s.inputs[fieldLocation].SetValue(p.LocationCode)
	s.inputs[fieldQuantity].SetValue(itoa(p.QuantityInStock))
	s.filled = true
}

func (s *productFormScreen) setFocus(i int) tea.Cmd {
	s.inputs[s.focus].Blur()
	s.focus = (i + fieldCount) % fieldCount
	return s.inputs[s.focus].Focus()
}

// values reads the form. A non-numeric quantity is reported as a field error.
func (s *productFormScreen) values() (domain.Product, error) {
	p := domain.Product{
		Name:         s.inputs[fieldName].Value(),
		SKU:          s.inputs[fieldSKU].Value(),
		LocationCode: s.inputs[fieldLocation].Value(),
	}
	raw := strings.TrimSpace(s.inputs[fieldQuantity].Value())
	q, err := strconv.Atoi(raw)
	if err != nil {
		return p, &console.FieldError{Field: "quantityInStock", Message: "Quantity must be a whole number"}
	}
	p.QuantityInStock = q
	return p, nil
}

func (s *productFormScreen) submit() tea.Cmd {
	p, err := s.values()
	if err == nil {
		err = console.ValidateProduct(normalizeForm(p))
	}
	if err != nil {
		s.showError(err)
		return nil
	}
	s.saving = true
	s.err = nil
	s.fieldErr = map[string]string{}
	a, id := s.app, s.id
	return func() tea.Msg {
		var saved domain.Product
		var err error
		if id == 0 {
			saved, err = a.catalog.Create(a.ctx, p)
		} else {
			saved, err = a.catalog.Update(a.ctx, id, p)
		}
		return productSavedMsg{product: saved, err: err}
	}
}

func normalizeForm(p domain.Product) domain.Product {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = domain.NormalizeSKU(p.SKU)
	p.LocationCode = strings.TrimSpace(p.LocationCode)
	return p
}

func (s *productFormScreen) showError(err error) {
	s.fieldErr = map[string]string{}
	var fe *console.FieldError
	if errors.As(err, &fe) {
		s.fieldErr[fe.Field] = fe.Message
		s.err = nil
		return
	}
	s.err = err
}

func (s *productFormScreen) update(msg tea.Msg) tea.Cmd {
	k := s.app.keys
	switch msg := msg.(type) {
	case loadedMsg:
		if s.product != nil && !s.filled {
			if st := s.product.State(); st.HasData {
				s.fill(st.Data)
			}
		}
		return nil
	case productSavedMsg:
		s.saving = false
		if msg.err != nil {
			s.showError(msg.err)
			return nil
		}
		return navigate(ViewProducts, 0)
	case tea.KeyMsg:
		if s.saving {
			return nil
		}
		if s.product != nil && !s.filled {
			switch {
			case key.Matches(msg, k.Back):
				return navigate(ViewProducts, 0)
			case key.Matches(msg, k.Refresh):
				return refetchCmd(s.app.ctx, s.product)
			}
			return nil
		}
		switch {
		case key.Matches(msg, k.Back):
			return navigate(ViewProducts, 0)
		case key.Matches(msg, k.Submit):
			return s.submit()
		case key.Matches(msg, k.NextField), msg.Type == tea.KeyDown:
			return s.setFocus(s.focus + 1)
		case key.Matches(msg, k.PrevField), msg.Type == tea.KeyUp:
			return s.setFocus(s.focus - 1)
		case msg.Type == tea.KeyEnter:
			if s.focus == fieldQuantity {
				return s.submit()
			}
			return s.setFocus(s.focus + 1)
		case key.Matches(msg, k.GenerateSKU):
			s.inputs[fieldSKU].SetValue(s.app.catalog.SuggestSKU(s.inputs[fieldName].Value()))
			return nil
		}

		var cmd tea.Cmd
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
		switch s.focus {
		case fieldSKU:
			// a hand-typed SKU stops the name from overwriting it
			s.autoSKU = false
			s.inputs[fieldSKU].SetValue(strings.ToUpper(s.inputs[fieldSKU].Value()))
		case fieldName:
			if s.autoSKU {
				s.inputs[fieldSKU].SetValue(s.app.catalog.SuggestSKU(s.inputs[fieldName].Value()))
			}
		}
		return cmd
	}
	return nil
}

func (s *productFormScreen) view(f frame) string {
	var b strings.Builder
	if s.id == 0 {
		b.WriteString(titleStyle.Render("Add New Product") + "  " + subtitleStyle.Render("Create a new product in your inventory") + "\n\n")
	} else {
		b.WriteString(titleStyle.Render("Edit Product") + "  " + subtitleStyle.Render("Update product information") + "\n\n")
		banner, blocking := resourceBanner(f, "product", s.product.State())
		if blocking {
			return b.String() + banner
		}
	}

	labels := [fieldCount]string{"Product Name *", "SKU *", "Location Code *", "Quantity in Stock *"}
	for i := range fieldCount {
		label := headerStyle.Render(labels[i])
		if i == fieldSKU && s.autoSKU {
			label += mutedStyle.Render("  auto-generated from name")
		}
		b.WriteString(label + "\n" + s.inputs[i].View() + "\n")
		if msg := s.fieldErr[formFieldNames[i]]; msg != "" {
			b.WriteString(errorStyle.Render("  "+msg) + "\n")
		}
		b.WriteString("\n")
	}

	switch {
	case s.saving:
		b.WriteString(f.spin + " Saving...")
	case s.err != nil:
		b.WriteString(errorStyle.Render(domain.Message(s.err)))
	}
	return b.String()
}
