package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v2"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

var headerCell = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var bodyCell = lipgloss.NewStyle().Padding(0, 1)

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return bodyCell
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func id(prefix string, v int64) string {
	return prefix + strconv.FormatInt(v, 10)
}

func printProducts(w io.Writer, products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found")
		return
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		stock := strconv.Itoa(p.QuantityInStock)
		if p.LowStock() {
			stock += " (low)"
		}
		rows = append(rows, []string{id("", p.ID), p.SKU, p.Name, p.LocationCode, stock})
	}
	printTable(w, []string{"ID", "SKU", "Name", "Location", "Stock"}, rows)
}

func printOrders(w io.Writer, orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders found")
		return
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			id("#", o.ID),
			string(o.Status),
			strconv.Itoa(o.TotalUnits()),
			domain.FormatDate(o.CreatedAt.Time),
		})
	}
	printTable(w, []string{"Order", "Status", "Items", "Created"}, rows)
}

func printTasks(w io.Writer, tasks []domain.PickingTask) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No picking tasks found")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			id("#", t.ID),
			id("#", t.OrderID),
			taskStatusLabel(t.Status),
			domain.FormatDate(t.CreatedAt.Time),
		})
	}
	printTable(w, []string{"Task", "Order", "Status", "Created"}, rows)
}

func taskStatusLabel(s domain.TaskStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func timelineLine(status domain.OrderStatus) string {
	steps := domain.Timeline(status)
	parts := make([]string, 0, len(steps))
	for _, step := range steps {
		var glyph string
		switch step.State {
		case domain.StepDone:
			glyph = "✔"
		case domain.StepCurrent:
			glyph = "●"
		case domain.StepCancelled:
			glyph = "✘"
		case domain.StepPending:
			glyph = "○"
		}
		parts = append(parts, glyph+" "+string(step.Status))
	}
	return strings.Join(parts, " ─ ")
}

func printOrder(w io.Writer, o domain.Order) {
	fmt.Fprintf(w, "Order #%d  %s\n", o.ID, o.Status)
	fmt.Fprintf(w, "Created   %s\n", domain.FormatDateTime(o.CreatedAt.Time))
	fmt.Fprintf(w, "Items     %d units, %d product types\n", o.TotalUnits(), o.ProductTypes())
	fmt.Fprintln(w, timelineLine(o.Status))

	if len(o.OrderLineItems) == 0 {
		fmt.Fprintln(w, "No line items")
		return
	}
	headers := []string{"Product SKU", "Quantity"}
	if o.Status.ShowsPickProgress() {
		headers = append(headers, "Pick")
	}
	rows := make([][]string, 0, len(o.OrderLineItems))
	for _, item := range o.OrderLineItems {
		row := []string{item.ProductSKU, strconv.Itoa(item.Quantity)}
		if o.Status.ShowsPickProgress() {
			pick := domain.PickPending
			if o.Status == domain.OrderStatusCompleted {
				pick = domain.PickPicked
			}
			row = append(row, string(pick))
		}
		rows = append(rows, row)
	}
	printTable(w, headers, rows)
}

func printTask(w io.Writer, t domain.PickingTask, lines []domain.PickLine) {
	fmt.Fprintf(w, "Picking Task #%d  %s  (%d%%)\n", t.ID, taskStatusLabel(t.Status), t.Status.Progress())
	fmt.Fprintf(w, "Order     #%d\n", t.OrderID)
	fmt.Fprintf(w, "Created   %s\n", domain.FormatDateTime(t.CreatedAt.Time))
	if len(lines) == 0 {
		fmt.Fprintln(w, "No items to pick")
		return
	}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []string{l.ProductSKU, strconv.Itoa(l.Quantity), string(l.Status)})
	}
	printTable(w, []string{"Product SKU", "Quantity", "Status"}, rows)
}

func printDashboard(w io.Writer, d console.Dashboard) {
	printTable(w, []string{"Total Products", "Low Stock Items", "Active Orders", "Pending Tasks"}, [][]string{{
		strconv.Itoa(d.TotalProducts),
		strconv.Itoa(d.LowStockCount),
		strconv.Itoa(d.ActiveOrderCount),
		strconv.Itoa(d.PendingTaskCount),
	}})

	fmt.Fprintln(w, "Low Stock Alert")
	if len(d.LowStock) == 0 {
		fmt.Fprintln(w, "All products are well stocked")
	} else {
		printProducts(w, d.LowStock)
	}

	fmt.Fprintln(w, "Recent Orders")
	printOrders(w, d.RecentOrders)
}

// confirm asks question on the app's reader unless --yes was given. Anything but y or
// yes, including end of input, is a no.
func (e *env) confirm(c *cli.Context, question string) bool {
	if c.Bool("yes") {
		return true
	}
	fmt.Fprintf(e.out, "%s (y/n) ", question)
	line, _ := bufio.NewReader(e.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
