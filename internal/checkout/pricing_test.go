// internal/checkout/pricing_test.go
package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverWithoutRules(t *testing.T) {
	gw := newFakeGateway()
	resolver := NewResolver(gw, nil)

	quote := resolver.Resolve(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(450000))

	assert.True(t, quote.FinalAmount.Equal(decimal.NewFromInt(450000)))
	assert.True(t, quote.DiscountAmount.IsZero())
	assert.Nil(t, quote.TermDays)
	assert.Nil(t, quote.InterestRate)
}

func TestResolverAppliesDiscountAndOverrides(t *testing.T) {
	term := 180
	rate := decimal.NewFromInt(8)
	gw := newFakeGateway()
	gw.pricing = &ApplicablePricing{DiscountPercent: decimal.NewFromInt(10), TermDays: &term, InterestRate: &rate}

	quote := NewResolver(gw, nil).Resolve(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(200000))

	assert.Equal(t, "180000", quote.FinalAmount.String())
	assert.Equal(t, "20000", quote.DiscountAmount.String())
	assert.Equal(t, "10", quote.DiscountPercent.String())
	require.NotNil(t, quote.TermDays)
	assert.Equal(t, 180, *quote.TermDays)
	require.NotNil(t, quote.InterestRate)
	assert.True(t, quote.InterestRate.Equal(rate))
}

func TestResolverFallsBackOnError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gw := newFakeGateway()
	gw.pricingErr = errors.New("pricing service unavailable")

	quote := NewResolver(gw, logger).Resolve(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(99000))

	assert.True(t, quote.FinalAmount.Equal(decimal.NewFromInt(99000)))
	assert.True(t, quote.DiscountAmount.IsZero())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestApplyPricingClampsPercent(t *testing.T) {
	quote := ApplyPricing(decimal.NewFromInt(1000), ApplicablePricing{DiscountPercent: decimal.NewFromInt(150)})
	assert.True(t, quote.FinalAmount.IsZero())

	quote = ApplyPricing(decimal.NewFromInt(1000), ApplicablePricing{DiscountPercent: decimal.NewFromInt(-5)})
	assert.True(t, quote.FinalAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, quote.DiscountPercent.IsZero())
}
