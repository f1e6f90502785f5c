package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scentrale/internal/cart"
	"scentrale/internal/model"
	"scentrale/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartStore   cart.Store
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartStore cart.Store,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartStore:   cartStore,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// Create converts the caller's cart (or an explicit item list) into an
// immutable order. Item names and prices are snapshotted here and never
// re-derived from the catalogue. Order insert, item insert and stock
// decrement share one transaction so a failure partway through leaves no
// half-created order behind.
func (s *orderService) Create(ctx context.Context, requester model.Identity, req *model.OrderRequest) (*model.Order, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	// The cart is the source of truth when it is non-empty; explicit items
	// are the fallback for callers that checkout without one.
	snapshot, err := s.cartStore.Get(ctx, requester.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", requester.UserID.String()).Msg("failed to read cart")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	var items []model.OrderItem
	fromCart := !snapshot.Empty()

	if fromCart {
		items = make([]model.OrderItem, len(snapshot.Items))
		for i, ci := range snapshot.Items {
			if ci.Quantity <= 0 {
				return nil, model.ErrInvalidQuantity
			}
			items[i] = model.OrderItem{
				ID:        uuid.New(),
				ProductID: ci.ProductID,
				Name:      ci.Name,
				UnitPrice: ci.Price,
				Quantity:  ci.Quantity,
			}
		}
	} else if len(req.Items) > 0 {
		items = make([]model.OrderItem, 0, len(req.Items))
		for _, ir := range req.Items {
			product, err := s.productRepo.Resolve(ctx, ir.ProductID)
			if err != nil {
				s.logger.Error().Err(err).Str("product_ref", ir.ProductID).Msg("failed to resolve product")
				return nil, fmt.Errorf("failed to create order: %w", err)
			}
			if product == nil {
				s.logger.Warn().Str("product_ref", ir.ProductID).Msg("product not found")
				return nil, model.ErrProductNotFound
			}

			quantity := ir.Quantity
			if quantity == 0 {
				quantity = 1
			}

			items = append(items, model.OrderItem{
				ID:        uuid.New(),
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Quantity:  quantity,
			})
		}
	} else {
		return nil, model.ErrEmptyCart
	}

	totalAmount := decimal.Zero
	for _, item := range items {
		totalAmount = totalAmount.Add(item.Subtotal())
	}

	// A trusted caller may override the computed total, e.g. after a
	// discount applied upstream. The override is taken at face value.
	if req.TotalAmount != nil && req.TotalAmount.IsPositive() {
		totalAmount = *req.TotalAmount
	}

	now := time.Now()
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          requester.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		CustomerEmail:   req.CustomerEmail,
		PaymentMethod:   req.PaymentMethod,
		TotalAmount:     totalAmount,
		PaymentStatus:   model.PaymentPending,
		OrderStatus:     model.OrderProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "card"
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	// Reserve stock inside the same transaction. The repository enforces a
	// non-negative floor, so two concurrent checkouts cannot both drain the
	// same units.
	for _, item := range order.Items {
		if err = s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if err == model.ErrOutOfStock {
				return nil, err
			}
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// The order exists now; a cart cleanup failure must not fail the call.
	if fromCart {
		if clearErr := s.cartStore.Clear(ctx, requester.UserID); clearErr != nil {
			s.logger.Warn().
				Err(clearErr).
				Str("user_id", requester.UserID.String()).
				Str("order_id", order.ID.String()).
				Msg("failed to clear cart after order creation")
		}
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", requester.UserID.String()).
		Int("item_count", len(order.Items)).
		Str("total_amount", order.TotalAmount.String()).
		Msg("order created successfully")

	return order, nil
}

// List retrieves the caller's orders, newest first.
func (s *orderService) List(ctx context.Context, requester model.Identity) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, requester.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", requester.UserID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// GetByID retrieves a single order, restricted to its owner or an admin.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !requester.Owns(order.UserID) && !requester.IsAdmin() {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("user_id", requester.UserID.String()).
			Msg("order access denied")
		return nil, model.ErrForbidden
	}

	return order, nil
}

// Cancel cancels an order and restores the reserved stock. Restoration uses
// the snapshotted quantities, so a create+cancel pair nets stock to zero
// regardless of catalogue changes in between.
func (s *orderService) Cancel(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !requester.Owns(order.UserID) && !requester.IsAdmin() {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("user_id", requester.UserID.String()).
			Msg("cancellation denied")
		return nil, model.ErrForbidden
	}

	if !order.OrderStatus.Cancellable() {
		return nil, model.ErrInvalidState
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	cancelled, err := s.orderRepo.Cancel(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !cancelled {
		// Lost a race with shipment or another cancellation.
		err = model.ErrInvalidState
		return nil, err
	}

	for _, item := range order.Items {
		if err = s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit cancellation")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order.OrderStatus = model.OrderCancelled
	order.PaymentStatus = model.PaymentRefunded
	order.UpdatedAt = time.Now()

	s.logger.Info().
		Str("order_id", id.String()).
		Str("user_id", requester.UserID.String()).
		Msg("order cancelled successfully")

	return order, nil
}

// UpdateStatus overwrites the fulfilment status. The transition table keeps
// the update forward-only: shipped orders cannot move back to processing.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error) {
	if req == nil || !req.OrderStatus.Valid() {
		return nil, model.NewDomainError(model.ErrCodeValidation, "Unknown order status")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !order.OrderStatus.CanTransitionTo(req.OrderStatus) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(order.OrderStatus)).
			Str("to", string(req.OrderStatus)).
			Msg("illegal status transition rejected")
		return nil, model.ErrBadTransition
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, id, order.OrderStatus, req.OrderStatus, req.TrackingNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if !updated {
		// Concurrent mutation between the read and the guarded write.
		return nil, model.ErrBadTransition
	}

	order.OrderStatus = req.OrderStatus
	if req.TrackingNumber != nil {
		order.TrackingNumber = req.TrackingNumber
	}
	order.UpdatedAt = time.Now()

	s.logger.Info().
		Str("order_id", id.String()).
		Str("status", string(req.OrderStatus)).
		Msg("order status updated")

	return order, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeValidation, "Order request is required")
	}

	addr := req.ShippingAddress
	switch {
	case addr.Line1 == "":
		return model.NewDomainError(model.ErrCodeValidation, "Shipping address line is required")
	case addr.City == "":
		return model.NewDomainError(model.ErrCodeValidation, "Shipping city is required")
	case addr.PostalCode == "":
		return model.NewDomainError(model.ErrCodeValidation, "Shipping postal code is required")
	case addr.Country == "":
		return model.NewDomainError(model.ErrCodeValidation, "Shipping country is required")
	}

	if req.CustomerEmail == "" || !strings.Contains(req.CustomerEmail, "@") {
		return model.NewDomainError(model.ErrCodeValidation, "A valid customer email is required")
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("item %d: product ID is required", i))
		}
		if item.Quantity < 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}
