package integration

import (
	"context"
	"sync"
	"testing"

	"scentrale/internal/config"
	"scentrale/internal/gateway"
	"scentrale/internal/model"
	"scentrale/internal/repository"
	"scentrale/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	repo := repository.NewProductRepository(testDB.Pool, logger)

	ctx := context.Background()

	t.Run("Resolve by ID and by slug", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		byID, err := repo.Resolve(ctx, products[0].ID.String())
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "oud-royale", byID.Slug)

		bySlug, err := repo.Resolve(ctx, "vetiver-noir")
		require.NoError(t, err)
		require.NotNil(t, bySlug)
		assert.Equal(t, products[1].ID, bySlug.ID)
	})

	t.Run("Resolve returns nil for unknown reference", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedCatalogue(t, testDB.Pool)

		product, err := repo.Resolve(ctx, "no-such-perfume")
		require.NoError(t, err)
		assert.Nil(t, product)
	})

	t.Run("DecrementStock respects the floor", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)
		lowStock := products[2] // stock 2

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)

		err = repo.DecrementStock(ctx, tx, lowStock.ID, 3)
		assert.Equal(t, model.ErrOutOfStock, err)
		require.NoError(t, tx.Rollback(ctx))

		assert.Equal(t, 2, stockOf(t, testDB.Pool, lowStock.ID))
	})

	t.Run("Decrement and increment net to the original stock", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)
		product := products[0] // stock 10

		tx, err := testDB.Pool.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.DecrementStock(ctx, tx, product.ID, 4))
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, 6, stockOf(t, testDB.Pool, product.ID))

		tx, err = testDB.Pool.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.IncrementStock(ctx, tx, product.ID, 4))
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, 10, stockOf(t, testDB.Pool, product.ID))
	})

	t.Run("Concurrent decrements cannot oversell", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)
		lowStock := products[2] // stock 2

		var wg sync.WaitGroup
		results := make(chan error, 4)

		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				tx, err := testDB.Pool.Begin(ctx)
				if err != nil {
					results <- err
					return
				}

				err = repo.DecrementStock(ctx, tx, lowStock.ID, 1)
				if err != nil {
					_ = tx.Rollback(ctx)
					results <- err
					return
				}
				results <- tx.Commit(ctx)
			}()
		}

		wg.Wait()
		close(results)

		var succeeded, outOfStock int
		for err := range results {
			switch err {
			case nil:
				succeeded++
			case model.ErrOutOfStock:
				outOfStock++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}

		assert.Equal(t, 2, succeeded)
		assert.Equal(t, 2, outOfStock)
		assert.Equal(t, 0, stockOf(t, testDB.Pool, lowStock.ID))
	})
}

func TestOrderLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	ctx := context.Background()

	newOrderService := func(carts *memoryCartStore) service.OrderService {
		return service.NewOrderService(orderRepo, productRepo, carts, logger)
	}

	request := func() *model.OrderRequest {
		return &model.OrderRequest{
			ShippingAddress: model.ShippingAddress{
				FullName:   "Ada Lovelace",
				Line1:      "12 Rue de la Paix",
				City:       "Paris",
				PostalCode: "75002",
				Country:    "FR",
			},
			CustomerEmail: "shopper@example.com",
		}
	}

	t.Run("Create from cart decrements stock and clears the cart", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		carts := newMemoryCartStore()
		require.NoError(t, carts.Put(ctx, &model.CartSnapshot{
			UserID: requester.UserID,
			Items: []model.CartItem{
				{ProductID: products[0].ID, Name: products[0].Name, Price: products[0].Price, Quantity: 2},
				{ProductID: products[1].ID, Name: products[1].Name, Price: products[1].Price, Quantity: 1},
			},
		}))

		svc := newOrderService(carts)

		order, err := svc.Create(ctx, requester, request())
		require.NoError(t, err)

		assert.Equal(t, 8, stockOf(t, testDB.Pool, products[0].ID))
		assert.Equal(t, 4, stockOf(t, testDB.Pool, products[1].ID))

		snapshot, err := carts.Get(ctx, requester.UserID)
		require.NoError(t, err)
		assert.Nil(t, snapshot)

		// The persisted order round-trips with its snapshotted items.
		persisted, err := orderRepo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.Equal(t, model.PaymentPending, persisted.PaymentStatus)
		assert.Equal(t, model.OrderProcessing, persisted.OrderStatus)
		assert.Len(t, persisted.Items, 2)
		assert.True(t, decimal.RequireFromString("285.50").Equal(persisted.TotalAmount))
	})

	t.Run("Create rolls back entirely when one item is short", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		carts := newMemoryCartStore()
		require.NoError(t, carts.Put(ctx, &model.CartSnapshot{
			UserID: requester.UserID,
			Items: []model.CartItem{
				{ProductID: products[0].ID, Name: products[0].Name, Price: products[0].Price, Quantity: 1},
				{ProductID: products[3].ID, Name: products[3].Name, Price: products[3].Price, Quantity: 1}, // stock 0
			},
		}))

		svc := newOrderService(carts)

		order, err := svc.Create(ctx, requester, request())
		assert.Nil(t, order)
		assert.Equal(t, model.ErrOutOfStock, err)

		// The first item's decrement rolled back with the order.
		assert.Equal(t, 10, stockOf(t, testDB.Pool, products[0].ID))

		orders, err := orderRepo.ListByUser(ctx, requester.UserID)
		require.NoError(t, err)
		assert.Empty(t, orders)

		// The cart survives a failed checkout.
		snapshot, err := carts.Get(ctx, requester.UserID)
		require.NoError(t, err)
		require.NotNil(t, snapshot)
	})

	t.Run("Create then cancel nets stock to zero", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		carts := newMemoryCartStore()
		require.NoError(t, carts.Put(ctx, &model.CartSnapshot{
			UserID: requester.UserID,
			Items: []model.CartItem{
				{ProductID: products[0].ID, Name: products[0].Name, Price: products[0].Price, Quantity: 3},
			},
		}))

		svc := newOrderService(carts)

		order, err := svc.Create(ctx, requester, request())
		require.NoError(t, err)
		assert.Equal(t, 7, stockOf(t, testDB.Pool, products[0].ID))

		cancelled, err := svc.Cancel(ctx, order.ID, requester)
		require.NoError(t, err)
		assert.Equal(t, model.OrderCancelled, cancelled.OrderStatus)
		assert.Equal(t, model.PaymentRefunded, cancelled.PaymentStatus)
		assert.Equal(t, 10, stockOf(t, testDB.Pool, products[0].ID))

		// A second cancel hits the guarded update and fails cleanly.
		_, err = svc.Cancel(ctx, order.ID, requester)
		assert.Equal(t, model.ErrInvalidState, err)
		assert.Equal(t, 10, stockOf(t, testDB.Pool, products[0].ID))
	})

	t.Run("Shipped orders cannot be cancelled", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		carts := newMemoryCartStore()
		require.NoError(t, carts.Put(ctx, &model.CartSnapshot{
			UserID: requester.UserID,
			Items: []model.CartItem{
				{ProductID: products[0].ID, Name: products[0].Name, Price: products[0].Price, Quantity: 1},
			},
		}))

		svc := newOrderService(carts)

		order, err := svc.Create(ctx, requester, request())
		require.NoError(t, err)

		tracking := "TRK-001"
		_, err = svc.UpdateStatus(ctx, order.ID, &model.StatusUpdateRequest{
			OrderStatus:    model.OrderShipped,
			TrackingNumber: &tracking,
		})
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, order.ID, requester)
		assert.Equal(t, model.ErrInvalidState, err)
		assert.Equal(t, 9, stockOf(t, testDB.Pool, products[0].ID))
	})
}

func TestWebhookReconciliation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	signer := gateway.NewSigner("whsec_integration")
	sessions := gateway.NewSessionBuilder(signer, "https://pay.example.com/checkout", "pk_test")
	paymentCfg := config.PaymentConfig{
		GatewayURL: "https://pay.example.com/checkout",
		APIKey:     "pk_test",
		Currency:   "USD",
		ReturnURL:  "https://shop.example.com/payment/success",
		CancelURL:  "https://shop.example.com/payment/cancel",
	}
	paymentSvc := service.NewPaymentService(orderRepo, signer, sessions, paymentCfg, logger)

	ctx := context.Background()

	placeOrder := func(t *testing.T, requester model.Identity, products []model.Product) *model.Order {
		t.Helper()

		carts := newMemoryCartStore()
		require.NoError(t, carts.Put(ctx, &model.CartSnapshot{
			UserID: requester.UserID,
			Items: []model.CartItem{
				{ProductID: products[0].ID, Name: products[0].Name, Price: products[0].Price, Quantity: 1},
			},
		}))

		orderSvc := service.NewOrderService(orderRepo, productRepo, carts, logger)
		order, err := orderSvc.Create(ctx, requester, &model.OrderRequest{
			ShippingAddress: model.ShippingAddress{
				FullName:   "Ada Lovelace",
				Line1:      "12 Rue de la Paix",
				City:       "Paris",
				PostalCode: "75002",
				Country:    "FR",
			},
			CustomerEmail: "shopper@example.com",
		})
		require.NoError(t, err)
		return order
	}

	webhook := func(t *testing.T, orderID, status, txID string) *model.WebhookRequest {
		t.Helper()

		signature, err := signer.SignWebhook(gateway.WebhookPayload{
			OrderID:       orderID,
			Status:        status,
			TransactionID: txID,
		})
		require.NoError(t, err)

		return &model.WebhookRequest{
			OrderID:       orderID,
			Status:        status,
			TransactionID: txID,
			Signature:     signature,
		}
	}

	t.Run("Success webhook completes the payment once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		order := placeOrder(t, requester, products)

		require.NoError(t, paymentSvc.HandleWebhook(ctx, webhook(t, order.ID.String(), "success", "tx_first")))

		view, err := paymentSvc.GetStatus(ctx, order.ID, requester)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentCompleted, view.PaymentStatus)
		require.NotNil(t, view.TransactionID)
		assert.Equal(t, "tx_first", *view.TransactionID)

		// Redelivery keeps the first transaction ID.
		require.NoError(t, paymentSvc.HandleWebhook(ctx, webhook(t, order.ID.String(), "success", "tx_second")))

		view, err = paymentSvc.GetStatus(ctx, order.ID, requester)
		require.NoError(t, err)
		assert.Equal(t, "tx_first", *view.TransactionID)
	})

	t.Run("Tampered webhook leaves the order untouched", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		order := placeOrder(t, requester, products)

		req := webhook(t, order.ID.String(), "failed", "")
		req.Status = "success"

		err := paymentSvc.HandleWebhook(ctx, req)
		assert.Equal(t, model.ErrInvalidSignature, err)

		view, err := paymentSvc.GetStatus(ctx, order.ID, requester)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPending, view.PaymentStatus)
	})

	t.Run("Failure webhook marks the payment failed", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		order := placeOrder(t, requester, products)

		require.NoError(t, paymentSvc.HandleWebhook(ctx, webhook(t, order.ID.String(), "failed", "")))

		view, err := paymentSvc.GetStatus(ctx, order.ID, requester)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentFailed, view.PaymentStatus)
	})

	t.Run("Checkout session after payment is rejected", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		products := SeedCatalogue(t, testDB.Pool)

		requester := model.Identity{UserID: uuid.New()}
		order := placeOrder(t, requester, products)

		require.NoError(t, paymentSvc.HandleWebhook(ctx, webhook(t, order.ID.String(), "completed", "tx_1")))

		_, err := paymentSvc.CreateCheckoutSession(ctx, order.ID, requester)
		assert.Equal(t, model.ErrAlreadyPaid, err)
	})
}
