package repository

import (
	"context"
	"fmt"

	"scentrale/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const orderColumns = `id, user_id, customer_email, payment_method,
		ship_full_name, ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country,
		total_amount, payment_status, order_status, transaction_id, tracking_number, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.CustomerEmail,
		&o.PaymentMethod,
		&o.ShippingAddress.FullName,
		&o.ShippingAddress.Line1,
		&o.ShippingAddress.Line2,
		&o.ShippingAddress.City,
		&o.ShippingAddress.State,
		&o.ShippingAddress.PostalCode,
		&o.ShippingAddress.Country,
		&o.TotalAmount,
		&o.PaymentStatus,
		&o.OrderStatus,
		&o.TransactionID,
		&o.TrackingNumber,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, customer_email, payment_method,
			ship_full_name, ship_line1, ship_line2, ship_city, ship_state, ship_postal_code, ship_country,
			total_amount, payment_status, order_status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.CustomerEmail,
		order.PaymentMethod,
		order.ShippingAddress.FullName,
		order.ShippingAddress.Line1,
		order.ShippingAddress.Line2,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		order.TotalAmount,
		order.PaymentStatus,
		order.OrderStatus,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.itemsForOrders(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]

	return order, nil
}

// ListByUser retrieves all orders owned by a user, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	var ids []uuid.UUID
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.itemsForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}

	return orders, nil
}

// itemsForOrders loads line items for a set of orders in one query.
func (r *orderRepository) itemsForOrders(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.OrderItem, len(ids))
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// UpdatePaymentStatus conditionally moves an order's payment status. The
// guard on the current status makes webhook delivery safe to retry and keeps
// concurrent mutations all-or-nothing.
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, transactionID *string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = $3, transaction_id = COALESCE($4, transaction_id), updated_at = NOW()
		WHERE id = $1 AND payment_status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, from, to, transactionID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("failed to update payment status")
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Cancel flips an order to cancelled/refunded within the provided
// transaction so it commits together with the stock restoration.
func (r *orderRepository) Cancel(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET order_status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1 AND order_status NOT IN ($4, $5, $6)
	`

	tag, err := tx.Exec(ctx, query, id,
		model.OrderCancelled, model.PaymentRefunded,
		model.OrderShipped, model.OrderDelivered, model.OrderCancelled,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to cancel order")
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpdateStatus conditionally overwrites the fulfilment status and optional
// tracking number, guarded on the expected current status.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, trackingNumber *string) (bool, error) {
	query := `
		UPDATE orders
		SET order_status = $3, tracking_number = COALESCE($4, tracking_number), updated_at = NOW()
		WHERE id = $1 AND order_status = $2
	`

	tag, err := r.pool.Exec(ctx, query, id, from, to, trackingNumber)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(to)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
