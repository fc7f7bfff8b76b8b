package storage

import (
	"context"
	"database/sql"
	"embed"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

const mysqlDuplicateEntry = 1062

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ port.DatabaseRepository = (*MySQLAdapter)(nil)

type MySQLAdapter struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db, now: time.Now}
}

// EnsureSchema applies every pending up migration. Running it against an up to date
// database is a no-op. Migration files hold several statements, so the DSN needs
// multiStatements (see MySQLDSN).
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "open migrations")
	}
	// a dedicated conn, so closing the migrator leaves the shared pool open
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "migrate conn")
	}
	driver, err := migratemysql.WithConnection(ctx, conn, &migratemysql.Config{})
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "migrate driver")
	}
	mig, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		driver.Close()
		return errors.Wrap(err, "migrate init")
	}
	defer mig.Close()

	err = mig.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return errors.Wrap(err, "apply migrations")
}

// MySQLDSN turns on the driver options the adapter relies on: parseTime for the
// DATETIME columns and multiStatements for the migration files.
func MySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parse mysql dsn")
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN(), nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

const productColumns = `id, sku, name, location_code, quantity_in_stock`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.LocationCode, &p.QuantityInStock)
	return p, err
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	return products, errors.Wrap(rows.Err(), "iterate products")
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return m.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
}

func (m *MySQLAdapter) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return m.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE sku = ?`, sku)
}

func (m *MySQLAdapter) getProduct(ctx context.Context, query string, arg any) (*domain.Product, error) {
	p, err := scanProduct(m.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return &p, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, location_code, quantity_in_stock)
		VALUES (?, ?, ?, ?)`,
		product.SKU, product.Name, product.LocationCode, product.QuantityInStock,
	)
	if err != nil {
		return domain.Product{}, duplicateSKU(err, product.SKU)
	}
	product.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Product{}, errors.Wrap(err, "product id")
	}
	return product, nil
}

func (m *MySQLAdapter) UpdateProduct(ctx context.Context, product domain.Product) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET sku = ?, name = ?, location_code = ?, quantity_in_stock = ?
		WHERE id = ?`,
		product.SKU, product.Name, product.LocationCode, product.QuantityInStock, product.ID,
	)
	if err != nil {
		return duplicateSKU(err, product.SKU)
	}
	// MySQL reports 0 affected rows when nothing changed, so existence is checked separately
	if rows, _ := result.RowsAffected(); rows == 0 {
		existing, err := m.GetProduct(ctx, product.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return errors.Wrapf(domain.ErrNotFound, "product %d", product.ID)
		}
	}
	return nil
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id int64) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.Wrapf(domain.ErrNotFound, "product %d", id)
	}
	return nil
}

func duplicateSKU(err error, sku string) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return errors.Wrapf(domain.ErrValidation, "sku %s already exists", sku)
	}
	return errors.Wrap(err, "write product")
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, lines []domain.NewLineItem) (domain.Order, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	created := m.now().UTC()
	result, err := tx.ExecContext(ctx, `INSERT INTO orders (status, created_at) VALUES (?, ?)`, domain.OrderStatusNew, created)
	if err != nil {
		return domain.Order{}, errors.Wrap(err, "insert order")
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return domain.Order{}, errors.Wrap(err, "order id")
	}

	order := domain.Order{ID: orderID, Status: domain.OrderStatusNew, CreatedAt: domain.NewTimestamp(created)}
	for _, line := range lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET quantity_in_stock = quantity_in_stock - ?
			WHERE sku = ? AND quantity_in_stock >= ?`,
			line.Quantity, line.ProductSKU, line.Quantity,
		)
		if err != nil {
			return domain.Order{}, errors.Wrap(err, "update stock")
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return domain.Order{}, m.shortfall(ctx, tx, line)
		}

		result, err = tx.ExecContext(ctx, `
			INSERT INTO order_line_items (order_id, product_sku, quantity)
			VALUES (?, ?, ?)`,
			orderID, line.ProductSKU, line.Quantity,
		)
		if err != nil {
			return domain.Order{}, errors.Wrap(err, "insert line item")
		}
		lineID, err := result.LastInsertId()
		if err != nil {
			return domain.Order{}, errors.Wrap(err, "line item id")
		}
		order.OrderLineItems = append(order.OrderLineItems, domain.LineItem{ID: lineID, ProductSKU: line.ProductSKU, Quantity: line.Quantity})
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, errors.Wrap(err, "commit order")
	}
	return order, nil
}

// shortfall explains why a conditional stock update matched no row.
func (m *MySQLAdapter) shortfall(ctx context.Context, tx *sql.Tx, line domain.NewLineItem) error {
	var available int
	err := tx.QueryRowContext(ctx, `SELECT quantity_in_stock FROM products WHERE sku = ?`, line.ProductSKU).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(domain.ErrValidation, "unknown sku %s", line.ProductSKU)
	}
	if err != nil {
		return errors.Wrap(err, "query stock")
	}
	return &domain.InsufficientStockError{SKU: line.ProductSKU, Requested: line.Quantity, Available: available}
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var (
		order   domain.Order
		created time.Time
	)
	err := m.db.QueryRowContext(ctx, `SELECT id, status, created_at FROM orders WHERE id = ?`, id).
		Scan(&order.ID, &order.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	order.CreatedAt = domain.NewTimestamp(created)

	lines, err := m.lineItems(ctx, `WHERE li.order_id = ?`, id)
	if err != nil {
		return nil, err
	}
	order.OrderLineItems = lines[id]
	return &order, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	where, args := "", []any{}
	if status != nil {
		where, args = `WHERE o.status = ?`, []any{*status}
	}

	rows, err := m.db.QueryContext(ctx, `SELECT o.id, o.status, o.created_at FROM orders o `+where+` ORDER BY o.id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order   domain.Order
			created time.Time
		)
		if err := rows.Scan(&order.ID, &order.Status, &created); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		order.CreatedAt = domain.NewTimestamp(created)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}

	lines, err := m.lineItems(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].OrderLineItems = lines[orders[i].ID]
	}
	return orders, nil
}

// lineItems loads line items grouped by order id for the orders matched by where.
func (m *MySQLAdapter) lineItems(ctx context.Context, where string, args ...any) (map[int64][]domain.LineItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT li.id, li.order_id, li.product_sku, li.quantity
		FROM order_line_items li
		JOIN orders o ON o.id = li.order_id
		`+where+`
		ORDER BY li.id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query line items")
	}
	defer rows.Close()

	grouped := make(map[int64][]domain.LineItem)
	for rows.Next() {
		var (
			item    domain.LineItem
			orderID int64
		)
		if err := rows.Scan(&item.ID, &orderID, &item.ProductSKU, &item.Quantity); err != nil {
			return nil, errors.Wrap(err, "scan line item")
		}
		grouped[orderID] = append(grouped[orderID], item)
	}
	return grouped, errors.Wrap(rows.Err(), "iterate line items")
}

func (m *MySQLAdapter) TransitionOrder(ctx context.Context, id int64, from []domain.OrderStatus, next domain.OrderStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{next, id}
	for _, s := range from {
		args = append(args, s)
	}
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?
		WHERE id = ? AND status IN (`+placeholders(len(from))+`)`, args...)
	if err != nil {
		return false, errors.Wrap(err, "transition order")
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

func (m *MySQLAdapter) CancelOrder(ctx context.Context, id int64) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = ?
		WHERE id = ? AND status IN (?, ?)`,
		domain.OrderStatusCancelled, id, domain.OrderStatusNew, domain.OrderStatusAllocated,
	)
	if err != nil {
		return false, errors.Wrap(err, "cancel order")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products p
		JOIN order_line_items li ON li.product_sku = p.sku
		SET p.quantity_in_stock = p.quantity_in_stock + li.quantity
		WHERE li.order_id = ?`, id); err != nil {
		return false, errors.Wrap(err, "restock")
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM picking_tasks WHERE order_id = ? AND status = ?`,
		id, domain.TaskStatusInProgress); err != nil {
		return false, errors.Wrap(err, "drop task")
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit cancel")
	}
	return true, nil
}

func (m *MySQLAdapter) CreateTask(ctx context.Context, orderID int64) (domain.PickingTask, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PickingTask{}, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = ? WHERE id = ? AND status = ?`,
		domain.OrderStatusPicking, orderID, domain.OrderStatusAllocated,
	)
	if err != nil {
		return domain.PickingTask{}, errors.Wrap(err, "start picking")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.PickingTask{}, errors.Wrapf(domain.ErrIllegalTransition, "order %d is not allocated", orderID)
	}

	task := domain.PickingTask{OrderID: orderID, Status: domain.TaskStatusInProgress, CreatedAt: domain.NewTimestamp(m.now().UTC())}
	result, err = tx.ExecContext(ctx, `
		INSERT INTO picking_tasks (order_id, status, created_at) VALUES (?, ?, ?)`,
		orderID, task.Status, task.CreatedAt.Time,
	)
	if err != nil {
		return domain.PickingTask{}, errors.Wrap(err, "insert task")
	}
	if task.ID, err = result.LastInsertId(); err != nil {
		return domain.PickingTask{}, errors.Wrap(err, "task id")
	}

	if err := tx.Commit(); err != nil {
		return domain.PickingTask{}, errors.Wrap(err, "commit task")
	}
	return task, nil
}

func scanTask(row rowScanner) (domain.PickingTask, error) {
	var (
		task    domain.PickingTask
		created time.Time
	)
	err := row.Scan(&task.ID, &task.OrderID, &task.Status, &created)
	task.CreatedAt = domain.NewTimestamp(created)
	return task, err
}

func (m *MySQLAdapter) GetTask(ctx context.Context, id int64) (*domain.PickingTask, error) {
	task, err := scanTask(m.db.QueryRowContext(ctx, `
		SELECT id, order_id, status, created_at FROM picking_tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query task")
	}
	return &task, nil
}

func (m *MySQLAdapter) ListTasks(ctx context.Context, status *domain.TaskStatus) ([]domain.PickingTask, error) {
	query, args := `SELECT id, order_id, status, created_at FROM picking_tasks`, []any{}
	if status != nil {
		query, args = query+` WHERE status = ?`, append(args, *status)
	}
	rows, err := m.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query tasks")
	}
	defer rows.Close()

	tasks := make([]domain.PickingTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan task")
		}
		tasks = append(tasks, task)
	}
	return tasks, errors.Wrap(rows.Err(), "iterate tasks")
}

func (m *MySQLAdapter) CompleteTask(ctx context.Context, id int64) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE picking_tasks SET status = ? WHERE id = ? AND status = ?`,
		domain.TaskStatusDone, id, domain.TaskStatusInProgress,
	)
	if err != nil {
		return false, errors.Wrap(err, "complete task")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE orders o
		JOIN picking_tasks t ON t.order_id = o.id
		SET o.status = ?
		WHERE t.id = ?`, domain.OrderStatusCompleted, id); err != nil {
		return false, errors.Wrap(err, "complete order")
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit completion")
	}
	return true, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
