// internal/checkout/registry_test.go
package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryFlow(t *testing.T, gw Gateway, now func() time.Time) *Flow {
	seller := uuid.New()
	flow, err := NewFlow(Session{UserID: uuid.New()}, Party{ID: seller}, Product{ID: uuid.New(), UnitPrice: decimal.NewFromInt(1000), SellerID: seller}, Options{
		Gateway:  gw,
		Now:      now,
		Schedule: Immediate,
	})
	require.NoError(t, err)
	return flow
}

func TestRegistryOwnership(t *testing.T) {
	registry := NewRegistry(time.Minute)
	flow := newRegistryFlow(t, newFakeGateway(), nil)
	registry.Add(flow)

	got, err := registry.Get(flow.ID(), flow.Owner())
	require.NoError(t, err)
	assert.Same(t, flow, got)

	_, err = registry.Get(flow.ID(), uuid.New())
	assert.ErrorIs(t, err, ErrFlowForbidden)

	_, err = registry.Get(uuid.New(), flow.Owner())
	assert.ErrorIs(t, err, ErrFlowNotFound)
}

func TestRegistrySweep(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	registry := NewRegistry(10 * time.Minute)

	idle := newRegistryFlow(t, newFakeGateway(), func() time.Time { return start })
	fresh := newRegistryFlow(t, newFakeGateway(), func() time.Time { return start.Add(9 * time.Minute) })
	closed := newRegistryFlow(t, newFakeGateway(), func() time.Time { return start.Add(9 * time.Minute) })
	closed.Close()

	registry.Add(idle)
	registry.Add(fresh)
	registry.Add(closed)

	removed := registry.Sweep(start.Add(11 * time.Minute))
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, registry.Len())

	_, err := registry.Get(fresh.ID(), fresh.Owner())
	assert.NoError(t, err)
}

func TestRegistryDropsCompletedFlows(t *testing.T) {
	registry := NewRegistry(time.Minute)
	flow := newRegistryFlow(t, newFakeGateway(), nil)
	registry.Add(flow)

	require.NoError(t, flow.SelectPayment(PaymentTypeImmediate, PaymentMethodBankTransfer))
	require.NoError(t, flow.Proceed(context.Background()))
	require.NoError(t, flow.ConfirmTransfer(context.Background()))

	assert.Equal(t, 0, registry.Len())
}
