package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"}
}

func argID(c *cli.Context, what string) (int64, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("%w: %s id is required", domain.ErrValidation, what)
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid %s id %q", domain.ErrValidation, what, raw)
	}
	return v, nil
}

func dashboardCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "print the dashboard summary",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "watch", Usage: "reprint every poll interval until interrupted"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("watch") {
				return e.printSummary(c)
			}
			ticker := time.NewTicker(e.cfg.Dashboard.PollInterval)
			defer ticker.Stop()
			for {
				if err := e.printSummary(c); err != nil {
					fmt.Fprintln(e.out, "Failed to load dashboard:", domain.Message(err))
				}
				select {
				case <-c.Context.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}

func (e *env) printSummary(c *cli.Context) error {
	var (
		products []domain.Product
		orders   []domain.Order
		tasks    []domain.PickingTask
	)
	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() (err error) { products, err = e.gw.ListProducts(ctx); return err })
	g.Go(func() (err error) { orders, err = e.gw.ListOrders(ctx); return err })
	g.Go(func() (err error) { tasks, err = e.gw.ListTasks(ctx); return err })
	if err := g.Wait(); err != nil {
		return err
	}
	printDashboard(e.out, console.Summarize(products, orders, tasks, e.cfg.Dashboard.RecentOrders))
	return nil
}

func productsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "inspect and edit the product catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list products",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Usage: "match name or SKU"},
					&cli.BoolFlag{Name: "low-stock", Usage: "only products below the low stock threshold"},
					&cli.StringFlag{Name: "sort", Usage: "name, sku or quantityInStock", Value: string(console.SortByName)},
					&cli.BoolFlag{Name: "desc", Usage: "sort descending"},
				},
				Action: func(c *cli.Context) error {
					products, err := e.gw.ListProducts(c.Context)
					if err != nil {
						return err
					}
					products = console.FilterProducts(products, c.String("search"), c.Bool("low-stock"))
					products, err = console.SortProducts(products, console.SortField(c.String("sort")), !c.Bool("desc"))
					if err != nil {
						return fmt.Errorf("%w: %v", domain.ErrValidation, err)
					}
					printProducts(e.out, products)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show one product",
				ArgsUsage: "<sku>",
				Action: func(c *cli.Context) error {
					sku := domain.NormalizeSKU(c.Args().First())
					if err := domain.ValidateSKU(sku); err != nil {
						return err
					}
					p, err := e.gw.GetProductBySKU(c.Context, sku)
					if err != nil {
						return err
					}
					printProducts(e.out, []domain.Product{p})
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "add a product; the SKU is generated from the name when omitted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "sku"},
					&cli.StringFlag{Name: "location", Required: true},
					&cli.IntFlag{Name: "stock"},
				},
				Action: func(c *cli.Context) error {
					catalog := console.NewCatalog(e.gw, e.log)
					p := domain.Product{
						Name:            c.String("name"),
						SKU:             c.String("sku"),
						LocationCode:    c.String("location"),
						QuantityInStock: c.Int("stock"),
					}
					if strings.TrimSpace(p.SKU) == "" {
						p.SKU = catalog.SuggestSKU(p.Name)
					}
					created, err := catalog.Create(c.Context, p)
					if err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Product %s created\n", created.SKU)
					printProducts(e.out, []domain.Product{created})
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "change fields of a product",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "sku"},
					&cli.StringFlag{Name: "location"},
					&cli.IntFlag{Name: "stock"},
				},
				Action: func(c *cli.Context) error {
					productID, err := argID(c, "product")
					if err != nil {
						return err
					}
					p, err := e.gw.GetProduct(c.Context, productID)
					if err != nil {
						return err
					}
					if c.IsSet("name") {
						p.Name = c.String("name")
					}
					if c.IsSet("sku") {
						p.SKU = c.String("sku")
					}
					if c.IsSet("location") {
						p.LocationCode = c.String("location")
					}
					if c.IsSet("stock") {
						p.QuantityInStock = c.Int("stock")
					}
					updated, err := console.NewCatalog(e.gw, e.log).Update(c.Context, productID, p)
					if err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Product %s updated\n", updated.SKU)
					printProducts(e.out, []domain.Product{updated})
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "remove a product",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action: func(c *cli.Context) error {
					productID, err := argID(c, "product")
					if err != nil {
						return err
					}
					p, err := e.gw.GetProduct(c.Context, productID)
					if err != nil {
						return err
					}
					if !e.confirm(c, fmt.Sprintf("Delete product %s (%s)?", p.SKU, p.Name)) {
						fmt.Fprintln(e.out, "Aborted")
						return nil
					}
					if err := console.NewCatalog(e.gw, e.log).Delete(c.Context, productID); err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Product %s deleted\n", p.SKU)
					return nil
				},
			},
		},
	}
}

func ordersCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "list, inspect, create and cancel orders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list orders",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "NEW, ALLOCATED, PICKING, COMPLETED or CANCELLED"},
					&cli.StringFlag{Name: "sort", Usage: "createdAt, id or status", Value: string(console.SortByCreatedAt)},
					&cli.BoolFlag{Name: "asc", Usage: "sort ascending"},
				},
				Action: func(c *cli.Context) error {
					orders, err := listOrders(c.Context, e, c.String("status"))
					if err != nil {
						return err
					}
					orders, err = console.SortOrders(orders, console.SortField(c.String("sort")), c.Bool("asc"))
					if err != nil {
						return fmt.Errorf("%w: %v", domain.ErrValidation, err)
					}
					printOrders(e.out, orders)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show an order with its timeline and line items",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					orderID, err := argID(c, "order")
					if err != nil {
						return err
					}
					detail := console.NewOrderDetail(e.gw, orderID, e.log)
					detail.Load(c.Context)
					state := detail.Order.State()
					if state.Err != nil {
						return state.Err
					}
					printOrder(e.out, state.Data)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "create an order from SKU=QTY items",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "item", Usage: "SKU=QTY, repeatable; repeated SKUs are merged", Required: true},
				},
				Action: func(c *cli.Context) error {
					composer := console.NewComposer(e.gw, e.gw, e.log)
					var draft console.Draft
					for _, raw := range c.StringSlice("item") {
						sku, qty, err := parseItem(raw)
						if err != nil {
							return err
						}
						product, err := e.gw.GetProductBySKU(c.Context, sku)
						if err != nil {
							return err
						}
						if draft, err = composer.Add(c.Context, draft, product, qty); err != nil {
							return err
						}
					}
					order, err := composer.Submit(c.Context, draft)
					if err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Order #%d created\n", order.ID)
					printOrder(e.out, order)
					return nil
				},
			},
			{
				Name:      "cancel",
				Usage:     "cancel a NEW or ALLOCATED order",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action: func(c *cli.Context) error {
					orderID, err := argID(c, "order")
					if err != nil {
						return err
					}
					order, err := e.gw.GetOrder(c.Context, orderID)
					if err != nil {
						return err
					}
					if order.Status.CanCancel() && !e.confirm(c, fmt.Sprintf("Cancel Order #%d?", orderID)) {
						fmt.Fprintln(e.out, "Aborted")
						return nil
					}
					updated, err := console.NewLifecycle(e.gw, e.gw, e.log).CancelOrder(c.Context, order)
					if err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Order #%d is now %s\n", updated.ID, updated.Status)
					return nil
				},
			},
		},
	}
}

func listOrders(ctx context.Context, e *env, status string) ([]domain.Order, error) {
	if status == "" || status == console.StatusFilterAll {
		return e.gw.ListOrders(ctx)
	}
	st, err := domain.ParseOrderStatus(strings.ToUpper(status))
	if err != nil {
		return nil, err
	}
	return e.gw.ListOrdersByStatus(ctx, st)
}

func parseItem(raw string) (string, int, error) {
	sku, qty, ok := strings.Cut(raw, "=")
	if !ok {
		return "", 0, fmt.Errorf("%w: item %q must be SKU=QTY", domain.ErrValidation, raw)
	}
	sku = domain.NormalizeSKU(sku)
	if err := domain.ValidateSKU(sku); err != nil {
		return "", 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil {
		return "", 0, errors.Wrapf(domain.ErrInvalidQuantity, "item %q", raw)
	}
	return sku, n, nil
}

func tasksCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "list, inspect and complete picking tasks",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list picking tasks",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "IN_PROGRESS or DONE"},
					&cli.StringFlag{Name: "sort", Usage: "createdAt, id, orderId or status", Value: string(console.SortByCreatedAt)},
					&cli.BoolFlag{Name: "asc", Usage: "sort ascending"},
				},
				Action: func(c *cli.Context) error {
					tasks, err := listTasks(c.Context, e, c.String("status"))
					if err != nil {
						return err
					}
					tasks, err = console.SortTasks(tasks, console.SortField(c.String("sort")), c.Bool("asc"))
					if err != nil {
						return fmt.Errorf("%w: %v", domain.ErrValidation, err)
					}
					printTasks(e.out, tasks)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "show a task with its pick list",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					taskID, err := argID(c, "task")
					if err != nil {
						return err
					}
					detail := console.NewTaskDetail(e.gw, taskID, e.log)
					detail.Load(c.Context)
					task := detail.Task.State()
					if task.Err != nil {
						return task.Err
					}
					lines, ok := detail.PickList()
					if !ok {
						return errors.Wrap(detail.Order.State().Err, "order details unavailable")
					}
					printTask(e.out, task.Data, lines)
					return nil
				},
			},
			{
				Name:      "complete",
				Usage:     "mark an IN_PROGRESS task as done",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action: func(c *cli.Context) error {
					taskID, err := argID(c, "task")
					if err != nil {
						return err
					}
					task, err := e.gw.GetTask(c.Context, taskID)
					if err != nil {
						return err
					}
					if task.Status.CanComplete() && !e.confirm(c, fmt.Sprintf("Mark task #%d as completed?", taskID)) {
						fmt.Fprintln(e.out, "Aborted")
						return nil
					}
					if _, _, err := console.NewLifecycle(e.gw, e.gw, e.log).CompleteTask(c.Context, task); err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Task #%d completed\n", taskID)
					return nil
				},
			},
		},
	}
}

func listTasks(ctx context.Context, e *env, status string) ([]domain.PickingTask, error) {
	if status == "" || status == console.StatusFilterAll {
		return e.gw.ListTasks(ctx)
	}
	st, err := domain.ParseTaskStatus(strings.ToUpper(status))
	if err != nil {
		return nil, err
	}
	switch st {
	case domain.TaskStatusInProgress:
		return e.gw.ListInProgressTasks(ctx)
	case domain.TaskStatusDone:
		return e.gw.ListCompletedTasks(ctx)
	}
	return e.gw.ListTasksByStatus(ctx, st)
}
