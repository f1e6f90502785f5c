package service

import (
	"context"
	"fmt"

	"scentrale/internal/config"
	"scentrale/internal/gateway"
	"scentrale/internal/model"
	"scentrale/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo repository.OrderRepository
	signer    *gateway.Signer
	sessions  *gateway.SessionBuilder
	cfg       config.PaymentConfig
	logger    zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	signer *gateway.Signer,
	sessions *gateway.SessionBuilder,
	cfg config.PaymentConfig,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		signer:    signer,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

// CreateCheckoutSession builds a signed redirect URL for an unpaid order.
// Read-only: the order is not mutated until the webhook arrives.
func (s *paymentService) CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, requester model.Identity) (*model.CheckoutSession, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !requester.Owns(order.UserID) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("user_id", requester.UserID.String()).
			Msg("checkout session denied")
		return nil, model.ErrForbidden
	}

	if order.PaymentStatus == model.PaymentCompleted {
		return nil, model.ErrAlreadyPaid
	}

	items := make([]gateway.SessionItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = gateway.SessionItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	checkoutURL, err := s.sessions.CheckoutURL(gateway.SessionPayload{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Amount:        order.TotalAmount,
		Currency:      s.cfg.Currency,
		Items:         items,
		CustomerEmail: order.CustomerEmail,
		ReturnURL:     s.cfg.ReturnURL,
		CancelURL:     s.cfg.CancelURL,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to build checkout URL")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("amount", order.TotalAmount.String()).
		Msg("checkout session created")

	return &model.CheckoutSession{
		CheckoutURL: checkoutURL,
		OrderID:     order.ID,
		Amount:      order.TotalAmount,
	}, nil
}

// HandleWebhook verifies and applies a gateway notification. The signature
// is checked before any state is touched, and redelivery of an
// already-applied notification is acknowledged without a second mutation.
func (s *paymentService) HandleWebhook(ctx context.Context, req *model.WebhookRequest) error {
	payload := gateway.WebhookPayload{
		OrderID:       req.OrderID,
		Status:        req.Status,
		TransactionID: req.TransactionID,
	}

	ok, err := s.signer.VerifyWebhook(payload, req.Signature)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("failed to verify webhook signature")
		return fmt.Errorf("failed to verify webhook: %w", err)
	}
	if !ok {
		s.logger.Warn().Str("order_id", req.OrderID).Msg("webhook signature mismatch")
		return model.ErrInvalidSignature
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return model.ErrOrderNotFound
	}

	switch req.Status {
	case "success", "completed":
		return s.applyPaymentSuccess(ctx, orderID, req.TransactionID)
	case "failed", "cancelled":
		return s.applyPaymentFailure(ctx, orderID)
	default:
		// Acknowledge unknown statuses so the gateway stops retrying.
		s.logger.Warn().
			Str("order_id", req.OrderID).
			Str("status", req.Status).
			Msg("unrecognised webhook status acknowledged without mutation")
		return nil
	}
}

func (s *paymentService) applyPaymentSuccess(ctx context.Context, orderID uuid.UUID, transactionID string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to apply payment: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	// Redelivered success for an already-completed order is a no-op.
	if order.PaymentStatus == model.PaymentCompleted {
		s.logger.Debug().Str("order_id", orderID.String()).Msg("duplicate success webhook ignored")
		return nil
	}

	if !order.PaymentStatus.CanTransitionTo(model.PaymentCompleted) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("payment_status", string(order.PaymentStatus)).
			Msg("success webhook for non-pending order acknowledged without mutation")
		return nil
	}

	updated, err := s.orderRepo.UpdatePaymentStatus(ctx, orderID, order.PaymentStatus, model.PaymentCompleted, &transactionID)
	if err != nil {
		return fmt.Errorf("failed to apply payment: %w", err)
	}
	if !updated {
		// Concurrent delivery already applied the transition.
		s.logger.Debug().Str("order_id", orderID.String()).Msg("payment update lost race, treating as applied")
		return nil
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("transaction_id", transactionID).
		Msg("payment completed")

	return nil
}

func (s *paymentService) applyPaymentFailure(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to apply payment failure: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	if order.PaymentStatus == model.PaymentFailed {
		return nil
	}

	if !order.PaymentStatus.CanTransitionTo(model.PaymentFailed) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("payment_status", string(order.PaymentStatus)).
			Msg("failure webhook for non-pending order acknowledged without mutation")
		return nil
	}

	updated, err := s.orderRepo.UpdatePaymentStatus(ctx, orderID, order.PaymentStatus, model.PaymentFailed, nil)
	if err != nil {
		return fmt.Errorf("failed to apply payment failure: %w", err)
	}
	if !updated {
		return nil
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("payment failed")

	return nil
}

// GetStatus returns the payment projection of an order owned by the requester.
func (s *paymentService) GetStatus(ctx context.Context, orderID uuid.UUID, requester model.Identity) (*model.PaymentStatusView, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get payment status: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !requester.Owns(order.UserID) {
		return nil, model.ErrForbidden
	}

	return &model.PaymentStatusView{
		OrderID:       order.ID,
		PaymentStatus: order.PaymentStatus,
		TransactionID: order.TransactionID,
	}, nil
}
