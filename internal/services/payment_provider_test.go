// internal/services/payment_provider_test.go
package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/farmlink-backend/internal/checkout"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(150000), MinorUnits(decimal.NewFromInt(150000), "VND"))
	assert.Equal(t, int64(150000), MinorUnits(decimal.RequireFromString("149999.6"), "vnd"))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99"), "usd"))
	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("9.995"), "EUR"))
}

func TestSimulatedProvider(t *testing.T) {
	logger, hook := test.NewNullLogger()
	provider := NewSimulatedProvider(logger)

	reference, err := provider.Charge(context.Background(), ChargeRequest{
		TransactionID: uuid.New(),
		Amount:        decimal.NewFromInt(50000),
		Currency:      "VND",
		Card:          checkout.CardDetails{Number: "4242 4242 4242 4242"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reference, "sim_"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "**** **** **** 4242", entry.Data["card"])

	assert.NoError(t, provider.Refund(context.Background(), reference, decimal.NewFromInt(50000), "VND"))
}

func TestCheckAmounts(t *testing.T) {
	valid := &CreateTransactionRequest{
		Amount:         decimal.NewFromInt(300000),
		DiscountAmount: decimal.NewFromInt(30000),
		FinalAmount:    decimal.NewFromInt(270000),
	}
	assert.NoError(t, checkAmounts(valid))

	mismatch := *valid
	mismatch.FinalAmount = decimal.NewFromInt(280000)
	assert.ErrorIs(t, checkAmounts(&mismatch), ErrInvalidAmounts)

	zero := *valid
	zero.Amount = decimal.Zero
	assert.ErrorIs(t, checkAmounts(&zero), ErrInvalidAmounts)

	negative := *valid
	negative.DiscountAmount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, checkAmounts(&negative), ErrInvalidAmounts)
}

func TestRenderTemplate(t *testing.T) {
	tmpl := getEmailTemplate(NotificationPurchase)

	subject, err := renderTemplate(tmpl.Subject, map[string]interface{}{"Code": "FL-0001"})
	require.NoError(t, err)
	assert.Equal(t, "Order confirmed - FL-0001", subject)

	body, err := renderTemplate(tmpl.Body, map[string]interface{}{
		"Name":    "<b>An</b>",
		"Code":    "FL-0001",
		"Product": "ST25 rice",
		"Amount":  "150000 VND",
		"DueAt":   "2024-04-01",
		"URL":     "https://farmlink.example/orders/1",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "due on 2024-04-01")
	assert.Contains(t, body, "&lt;b&gt;An&lt;/b&gt;")

	fallback := getEmailTemplate("unknown")
	assert.Equal(t, "Notification", fallback.Subject)

	_, err = renderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
