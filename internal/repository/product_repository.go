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

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

const productColumns = `id, slug, name, brand, price, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Brand,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a single product by its primary key.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// GetBySlug retrieves a single product by its public slug.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("slug", slug).Msg("product not found by slug")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("failed to query product by slug")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return product, nil
}

// Resolve resolves a raw product reference: primary-key lookup first, slug
// lookup as the compatibility fallback.
func (r *productRepository) Resolve(ctx context.Context, ref string) (*model.Product, error) {
	if id, err := uuid.Parse(ref); err == nil {
		product, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if product != nil {
			return product, nil
		}
	}

	return r.GetBySlug(ctx, ref)
}

// DecrementStock atomically subtracts quantity from a product's stock
// counter. The stock >= quantity guard keeps the counter non-negative under
// concurrent checkouts; zero rows affected means insufficient stock.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", id.String()).
			Int("quantity", quantity).
			Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("product_id", id.String()).
			Int("quantity", quantity).
			Msg("insufficient stock")
		return model.ErrOutOfStock
	}

	return nil
}

// IncrementStock atomically adds quantity back to a product's stock counter.
func (r *productRepository) IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("product_id", id.String()).
			Int("quantity", quantity).
			Msg("failed to increment stock")
		return fmt.Errorf("failed to increment stock: %w", err)
	}

	return nil
}
