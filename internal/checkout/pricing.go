// internal/checkout/pricing.go
package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// Resolver turns seller pricing rules into a quote. Lookup failures fall back
// to the undiscounted amount.
type Resolver struct {
	gateway Gateway
	logger  logrus.FieldLogger
}

func NewResolver(gateway Gateway, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{gateway: gateway, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, sellerID, productID uuid.UUID, amount decimal.Decimal) PricingQuote {
	quote := baseQuote(amount)

	pricing, err := r.gateway.GetApplicablePricing(ctx, sellerID, productID, amount)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"seller_id":  sellerID,
			"product_id": productID,
			"error":      err,
		}).Warn("Pricing lookup failed, using base amount")
		return quote
	}
	if pricing == nil {
		return quote
	}

	return ApplyPricing(amount, *pricing)
}

// ApplyPricing applies a discount percentage (clamped to [0,100]) and carries
// through any term or interest override.
func ApplyPricing(amount decimal.Decimal, pricing ApplicablePricing) PricingQuote {
	quote := baseQuote(amount)

	percent := pricing.DiscountPercent
	if percent.IsNegative() {
		percent = decimal.Zero
	}
	if percent.GreaterThan(hundred) {
		percent = hundred
	}

	if percent.IsPositive() {
		discount := amount.Mul(percent).Div(hundred).Round(2)
		quote.DiscountPercent = percent
		quote.DiscountAmount = discount
		quote.FinalAmount = amount.Sub(discount)
	}

	if pricing.TermDays != nil && *pricing.TermDays > 0 {
		days := *pricing.TermDays
		quote.TermDays = &days
	}
	if pricing.InterestRate != nil && !pricing.InterestRate.IsNegative() {
		rate := *pricing.InterestRate
		quote.InterestRate = &rate
	}

	return quote
}

func baseQuote(amount decimal.Decimal) PricingQuote {
	return PricingQuote{
		BaseAmount:      amount,
		FinalAmount:     amount,
		DiscountAmount:  decimal.Zero,
		DiscountPercent: decimal.Zero,
	}
}
