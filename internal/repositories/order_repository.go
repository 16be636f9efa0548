package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/coursework/storefront/internal/models"
	"go.uber.org/zap"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `id, user_id, items, total, status, shipping_address, created_at, updated_at`

// Place stores a new order in one transaction: every product row is locked,
// checked for stock, priced, and decremented before the order is inserted.
// order.Items must carry ProductID and Quantity; names, unit prices and the
// total are filled from the current product rows. Items are sorted by product id
// so concurrent orders lock rows in the same order.
func (r *orderRepository) Place(ctx context.Context, order *models.Order) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	slices.SortFunc(order.Items, func(a, b models.OrderItem) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})

	var total float64
	for i := range order.Items {
		item := &order.Items[i]

		var stock int
		err = tx.QueryRowContext(ctx,
			`SELECT name, price, stock FROM products WHERE id = ? FOR UPDATE`, item.ProductID,
		).Scan(&item.Name, &item.UnitPrice, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: id %d", models.ErrProductNotFound, item.ProductID)
			return err
		}
		if err != nil {
			r.logger.Error("failed to lock product", zap.Error(err), zap.Int("productID", item.ProductID))
			return fmt.Errorf("failed to lock product: %w", err)
		}

		if stock < item.Quantity {
			err = fmt.Errorf("%w: %s has %d left", models.ErrInsufficientStock, item.Name, stock)
			return err
		}

		if _, err = tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ? WHERE id = ?`, item.Quantity, item.ProductID,
		); err != nil {
			r.logger.Error("failed to decrement stock", zap.Error(err), zap.Int("productID", item.ProductID))
			return fmt.Errorf("failed to decrement stock: %w", err)
		}

		total += float64(item.Quantity) * item.UnitPrice
	}
	order.Total = math.Round(total*100) / 100

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (user_id, items, total, status, shipping_address)
		VALUES (?, ?, ?, ?, ?)
	`, order.UserID, string(items), order.Total, order.Status, string(address))
	if isMissingReference(err) {
		err = fmt.Errorf("%w: id %d", models.ErrUserNotFound, order.UserID)
		return err
	}
	if err != nil {
		r.logger.Error("failed to insert order", zap.Error(err))
		return fmt.Errorf("failed to insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("failed to commit order", zap.Error(err))
		return fmt.Errorf("failed to commit order: %w", err)
	}

	order.ID = int(id)
	return nil
}

// GetByID retrieves an order by its ID
func (r *orderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		r.logger.Error("failed to query order by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// GetAll retrieves a page of orders, newest first, optionally filtered by owner and status
func (r *orderRepository) GetAll(ctx context.Context, filter models.OrderListFilter) ([]models.Order, error) {
	var conditions []string
	var args []any

	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Count, pageOffset(filter.Page, filter.Count))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query orders", zap.Error(err))
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("failed to scan order", zap.Error(err))
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves an order from one status to another. The update only
// applies while the order still has status "from"; moving to cancelled puts
// the ordered quantities back into stock within the same transaction.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *models.Order, to models.OrderStatus) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ? AND status = ?`, to, order.ID, order.Status)
	if err != nil {
		r.logger.Error("failed to update order status", zap.Error(err), zap.Int("id", order.ID))
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if err = requireAffected(result, models.ErrInvalidStatusTransition); err != nil {
		return err
	}

	if to == models.OrderStatusCancelled {
		for _, item := range order.Items {
			if _, err = tx.ExecContext(ctx,
				`UPDATE products SET stock = stock + ? WHERE id = ?`, item.Quantity, item.ProductID,
			); err != nil {
				r.logger.Error("failed to restock product", zap.Error(err), zap.Int("productID", item.ProductID))
				return fmt.Errorf("failed to restock product: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("failed to commit order status", zap.Error(err))
		return fmt.Errorf("failed to commit order status: %w", err)
	}

	order.Status = to
	return nil
}

// Delete removes an order by its ID
func (r *orderRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete order", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return requireAffected(result, models.ErrOrderNotFound)
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var items, address []byte
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&items,
		&order.Total,
		&order.Status,
		&address,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}

	return &order, nil
}
