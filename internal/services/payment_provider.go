// internal/services/payment_provider.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/paymentmethod"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/javajoker/farmlink-backend/internal/checkout"
)

// ChargeRequest is a one-off card charge for a transaction.
type ChargeRequest struct {
	TransactionID   uuid.UUID
	TransactionCode string
	BuyerID         uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Card            checkout.CardDetails
}

// PaymentProvider charges and refunds cards. It returns the provider's
// reference for the charge.
type PaymentProvider interface {
	Charge(ctx context.Context, req ChargeRequest) (string, error)
	Refund(ctx context.Context, reference string, amount decimal.Decimal, currency string) error
}

// Currencies Stripe expects in whole units.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MinorUnits converts amount into the smallest currency unit.
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type StripeProvider struct {
	logger logrus.FieldLogger
}

func NewStripeProvider(secretKey string, logger logrus.FieldLogger) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{logger: logger}
}

func (p *StripeProvider) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	month, year, ok := req.Card.ExpiryMonthYear()
	if !ok {
		return "", fmt.Errorf("invalid card expiry")
	}

	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(req.Card.Digits()),
			ExpMonth: stripe.Int64(int64(month)),
			ExpYear:  stripe.Int64(int64(year)),
			CVC:      stripe.String(req.Card.CVV),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name: stripe.String(req.Card.HolderName),
		},
	}
	pmParams.Context = ctx

	pm, err := paymentmethod.New(pmParams)
	if err != nil {
		return "", fmt.Errorf("failed to create payment method: %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(MinorUnits(req.Amount, req.Currency)),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod:      stripe.String(pm.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String("FarmLink " + req.TransactionCode),
	}
	params.Context = ctx
	params.AddMetadata("transaction_id", req.TransactionID.String())
	params.AddMetadata("transaction_code", req.TransactionCode)
	params.AddMetadata("buyer_id", req.BuyerID.String())
	params.SetIdempotencyKey("charge-" + req.TransactionID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return pi.ID, fmt.Errorf("card payment was not completed (status %s)", pi.Status)
	}

	p.logger.WithFields(logrus.Fields{
		"transaction_id": req.TransactionID,
		"payment_intent": pi.ID,
	}).Info("Card charge succeeded")
	return pi.ID, nil
}

func (p *StripeProvider) Refund(ctx context.Context, reference string, amount decimal.Decimal, currency string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(MinorUnits(amount, currency)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to process refund: %w", err)
	}
	return nil
}

// SimulatedProvider accepts every card. Used when no Stripe key is configured.
type SimulatedProvider struct {
	logger logrus.FieldLogger
}

func NewSimulatedProvider(logger logrus.FieldLogger) *SimulatedProvider {
	return &SimulatedProvider{logger: logger}
}

func (p *SimulatedProvider) Charge(_ context.Context, req ChargeRequest) (string, error) {
	reference := "sim_" + uuid.NewString()
	p.logger.WithFields(logrus.Fields{
		"transaction_id": req.TransactionID,
		"card":           req.Card.Masked(),
		"reference":      reference,
	}).Warn("Simulated card charge")
	return reference, nil
}

func (p *SimulatedProvider) Refund(_ context.Context, reference string, amount decimal.Decimal, _ string) error {
	p.logger.WithFields(logrus.Fields{
		"reference": reference,
		"amount":    amount.String(),
	}).Warn("Simulated refund")
	return nil
}
