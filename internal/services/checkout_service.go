// internal/services/checkout_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/events"
	"github.com/javajoker/farmlink-backend/internal/metrics"
)

// Catalog resolves the product and seller a checkout is opened for.
type Catalog interface {
	CheckoutProduct(ctx context.Context, id uuid.UUID) (checkout.Product, checkout.Party, error)
}

// CheckoutService opens server-side checkout flows and keeps them in a registry
// until they complete, close or go idle.
type CheckoutService struct {
	catalog   Catalog
	gateway   checkout.Gateway
	registry  *checkout.Registry
	config    *config.Config
	publisher events.Publisher
	logger    logrus.FieldLogger

	// schedule overrides the completion scheduler; nil uses timers.
	schedule checkout.Scheduler
}

type StartCheckoutRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,min=1"`
}

func NewCheckoutService(catalog Catalog, gateway checkout.Gateway, registry *checkout.Registry, config *config.Config, publisher events.Publisher, logger logrus.FieldLogger) *CheckoutService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CheckoutService{
		catalog:   catalog,
		gateway:   gateway,
		registry:  registry,
		config:    config,
		publisher: publisher,
		logger:    logger,
	}
}

// Start opens a flow for the session's user and loads pricing and credit
// eligibility for the requested quantity.
func (s *CheckoutService) Start(ctx context.Context, session checkout.Session, req *StartCheckoutRequest) (*checkout.Flow, error) {
	if req.ProductID == uuid.Nil {
		return nil, ErrProductNotFound
	}

	product, seller, err := s.catalog.CheckoutProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	flow, err := checkout.NewFlow(session, seller, product, s.options())
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if err := flow.SetQuantity(ctx, quantity); err != nil {
		return nil, err
	}

	s.registry.Add(flow)
	flow.OnComplete(func(completion checkout.Completion) {
		s.completed(session, completion)
	})

	metrics.CheckoutFlowsStarted.Inc()
	metrics.CheckoutFlowsActive.Set(float64(s.registry.Len()))

	s.logger.WithFields(logrus.Fields{
		"flow_id":    flow.ID(),
		"buyer_id":   session.UserID,
		"product_id": product.ID,
		"quantity":   quantity,
	}).Info("Checkout started")

	return flow, nil
}

// SetScheduler replaces the completion scheduler for flows started afterwards.
func (s *CheckoutService) SetScheduler(schedule checkout.Scheduler) {
	s.schedule = schedule
}

func (s *CheckoutService) Get(id, owner uuid.UUID) (*checkout.Flow, error) {
	return s.registry.Get(id, owner)
}

// Close cancels the flow and forgets it.
func (s *CheckoutService) Close(id, owner uuid.UUID) error {
	flow, err := s.registry.Get(id, owner)
	if err != nil {
		if errors.Is(err, checkout.ErrFlowNotFound) {
			return nil
		}
		return err
	}

	flow.Close()
	s.registry.Remove(id)
	metrics.CheckoutFlowsActive.Set(float64(s.registry.Len()))
	return nil
}

// Run evicts idle flows until ctx is done.
func (s *CheckoutService) Run(ctx context.Context) {
	interval := s.config.Checkout.FlowTTL / 4
	if interval <= 0 {
		interval = checkout.DefaultFlowTTL / 4
	}
	s.registry.Run(ctx, interval)
}

func (s *CheckoutService) options() checkout.Options {
	cfg := s.config.Checkout
	return checkout.Options{
		Gateway: s.gateway,
		Logger:  s.logger,
		Bank: checkout.BankAccount{
			BankID:        cfg.BankID,
			AccountNumber: cfg.AccountNumber,
			AccountName:   cfg.AccountName,
		},
		QR:               checkout.NewQRGenerator(cfg.QRScheme, cfg.Currency),
		SuccessDelay:     cfg.SuccessDelay,
		MaxDocumentBytes: cfg.MaxDocumentBytes,
		Schedule:         s.schedule,
	}
}

func (s *CheckoutService) completed(session checkout.Session, completion checkout.Completion) {
	metrics.CheckoutFlowsCompleted.WithLabelValues(string(completion.PaymentType), string(completion.PaymentMethod)).Inc()
	metrics.CheckoutFlowsActive.Set(float64(s.registry.Len()))

	event := events.New(events.TypeCheckoutCompleted, completion.TransactionID.String(), completion)
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		s.logger.WithError(err).WithField("flow_id", completion.FlowID).Warn("Failed to publish checkout completion")
	}

	s.logger.WithFields(logrus.Fields{
		"flow_id":        completion.FlowID,
		"buyer_id":       session.UserID,
		"transaction_id": completion.TransactionID,
		"payment_type":   completion.PaymentType,
	}).Info("Checkout completed")
}
