// internal/checkout/eligibility.go
package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var errCeilingInvariant = errors.New("used credit exceeds credit limit")

// NewCreditCeiling builds a snapshot and rejects negative or overdrawn values.
func NewCreditCeiling(limit, used decimal.Decimal) (*CreditCeiling, error) {
	if limit.IsNegative() || used.IsNegative() {
		return nil, errors.New("credit values must be non-negative")
	}
	if used.GreaterThan(limit) {
		return nil, errCeilingInvariant
	}
	return &CreditCeiling{
		CreditLimit:     limit,
		UsedCredit:      used,
		AvailableCredit: limit.Sub(used),
	}, nil
}

// Checker answers whether a buyer may defer payment. The answer is advisory;
// lookup failures default to credit being available.
type Checker struct {
	gateway Gateway
	logger  logrus.FieldLogger
}

func NewChecker(gateway Gateway, logger logrus.FieldLogger) *Checker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Checker{gateway: gateway, logger: logger}
}

func (c *Checker) Check(ctx context.Context, buyerID, sellerID uuid.UUID, finalAmount decimal.Decimal) CreditEligibility {
	eligibility := CreditEligibility{Available: true, InterestRate: decimal.Zero}

	availability, err := c.gateway.CheckCreditAvailability(ctx, buyerID, sellerID, finalAmount)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"buyer_id":  buyerID,
			"seller_id": sellerID,
			"error":     err,
		}).Warn("Credit availability lookup failed, treating credit as available")
	} else if availability != nil {
		eligibility.Available = availability.Available
		if availability.TermDays > 0 {
			eligibility.TermDays = availability.TermDays
		}
		if availability.InterestRate.IsPositive() {
			eligibility.InterestRate = availability.InterestRate
		}
	}

	eligibility.Ceiling = c.Ceiling(ctx, buyerID, sellerID)
	return eligibility
}

// Ceiling returns nil when the seller set no limit or the lookup failed.
func (c *Checker) Ceiling(ctx context.Context, buyerID, sellerID uuid.UUID) *CreditCeiling {
	ceiling, err := c.gateway.GetCustomerCreditLimit(ctx, buyerID, sellerID)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"buyer_id":  buyerID,
			"seller_id": sellerID,
			"error":     err,
		}).Warn("Credit ceiling lookup failed")
		return nil
	}
	if ceiling == nil {
		return nil
	}

	snapshot, err := NewCreditCeiling(ceiling.CreditLimit, ceiling.UsedCredit)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"buyer_id":  buyerID,
			"seller_id": sellerID,
			"error":     err,
		}).Warn("Ignoring inconsistent credit ceiling")
		return nil
	}
	return snapshot
}
