package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"scentrale/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			slug VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			brand VARCHAR(255) NOT NULL DEFAULT '',
			price DECIMAL(10, 2) NOT NULL,
			stock INTEGER NOT NULL CHECK (stock >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			payment_method VARCHAR(50) NOT NULL,
			ship_full_name VARCHAR(255) NOT NULL DEFAULT '',
			ship_line1 VARCHAR(255) NOT NULL,
			ship_line2 VARCHAR(255) NOT NULL DEFAULT '',
			ship_city VARCHAR(255) NOT NULL,
			ship_state VARCHAR(255) NOT NULL DEFAULT '',
			ship_postal_code VARCHAR(50) NOT NULL,
			ship_country VARCHAR(100) NOT NULL,
			total_amount DECIMAL(10, 2) NOT NULL,
			payment_status VARCHAR(20) NOT NULL,
			order_status VARCHAR(20) NOT NULL,
			transaction_id VARCHAR(255),
			tracking_number VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID NOT NULL REFERENCES products(id),
			name VARCHAR(255) NOT NULL,
			unit_price DECIMAL(10, 2) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0)
		);

		CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
		CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedCatalogue inserts test perfume data and returns the inserted products.
func SeedCatalogue(t *testing.T, pool *pgxpool.Pool) []model.Product {
	t.Helper()

	ctx := context.Background()

	products := []model.Product{
		{ID: uuid.New(), Slug: "oud-royale", Name: "Oud Royale", Brand: "Maison Noctis", Price: decimal.RequireFromString("100.00"), Stock: 10},
		{ID: uuid.New(), Slug: "vetiver-noir", Name: "Vetiver Noir", Brand: "Maison Noctis", Price: decimal.RequireFromString("85.50"), Stock: 5},
		{ID: uuid.New(), Slug: "iris-imperiale", Name: "Iris Imperiale", Brand: "Atelier Lumen", Price: decimal.RequireFromString("145.00"), Stock: 2},
		{ID: uuid.New(), Slug: "santal-ambre", Name: "Santal Ambre", Brand: "Atelier Lumen", Price: decimal.RequireFromString("120.00"), Stock: 0},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, slug, name, brand, price, stock) VALUES ($1, $2, $3, $4, $5, $6)",
			p.ID, p.Slug, p.Name, p.Brand, p.Price, p.Stock,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.Slug, err)
		}
	}

	return products
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// memoryCartStore is an in-memory cart.Store so service flows can run
// without a Redis container.
type memoryCartStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*model.CartSnapshot
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{carts: make(map[uuid.UUID]*model.CartSnapshot)}
}

func (s *memoryCartStore) Get(ctx context.Context, userID uuid.UUID) (*model.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID], nil
}

func (s *memoryCartStore) Put(ctx context.Context, snapshot *model.CartSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[snapshot.UserID] = snapshot
	return nil
}

func (s *memoryCartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

// stockOf reads the current stock counter for a product.
func stockOf(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(), "SELECT stock FROM products WHERE id = $1", productID).Scan(&stock)
	if err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}
