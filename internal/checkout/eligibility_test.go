// internal/checkout/eligibility_test.go
package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreditCeiling(t *testing.T) {
	ceiling, err := NewCreditCeiling(decimal.NewFromInt(5000000), decimal.NewFromInt(1200000))
	require.NoError(t, err)
	assert.Equal(t, "3800000", ceiling.AvailableCredit.String())

	_, err = NewCreditCeiling(decimal.NewFromInt(100), decimal.NewFromInt(101))
	assert.Error(t, err)

	_, err = NewCreditCeiling(decimal.NewFromInt(-1), decimal.Zero)
	assert.Error(t, err)
}

func TestCheckerUsesStoreAnswer(t *testing.T) {
	gw := newFakeGateway()
	gw.availability = &CreditAvailability{Available: false, TermDays: 90, InterestRate: decimal.NewFromInt(12)}
	gw.ceiling = &CreditCeiling{CreditLimit: decimal.NewFromInt(1000), UsedCredit: decimal.NewFromInt(400)}

	eligibility := NewChecker(gw, nil).Check(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(100))

	assert.False(t, eligibility.Available)
	assert.Equal(t, 90, eligibility.TermDays)
	assert.True(t, eligibility.InterestRate.Equal(decimal.NewFromInt(12)))
	require.NotNil(t, eligibility.Ceiling)
	assert.Equal(t, "600", eligibility.Ceiling.AvailableCredit.String())
}

func TestCheckerDefaultsToAvailable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	gw := newFakeGateway()
	gw.availabilityErr = errors.New("timeout")
	gw.ceilingErr = errors.New("timeout")

	eligibility := NewChecker(gw, logger).Check(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(100))

	assert.True(t, eligibility.Available)
	assert.Equal(t, 0, eligibility.TermDays)
	assert.True(t, eligibility.InterestRate.IsZero())
	assert.Nil(t, eligibility.Ceiling)
	assert.Len(t, hook.AllEntries(), 2)
}

func TestCheckerIgnoresInconsistentCeiling(t *testing.T) {
	gw := newFakeGateway()
	gw.ceiling = &CreditCeiling{CreditLimit: decimal.NewFromInt(100), UsedCredit: decimal.NewFromInt(500)}

	assert.Nil(t, NewChecker(gw, nil).Ceiling(context.Background(), uuid.New(), uuid.New()))
}
