// internal/checkout/qr_test.go
package checkout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQRGenerator(t *testing.T) {
	bank := BankAccount{BankID: "VCB", AccountNumber: "0011001234567", AccountName: "FARMLINK CO"}
	gen := NewQRGenerator("", "")

	payload := gen.Generate(bank, decimal.NewFromInt(450000), "3f2c9a1b-77de-4c1a-9f00-1234567890ab")
	assert.Equal(t, "BANKQR|VCB|0011001234567|FARMLINK CO|450000|3f2c9a1b|VND", payload)

	again := gen.Generate(bank, decimal.NewFromInt(450000), "3f2c9a1b-77de-4c1a-9f00-1234567890ab")
	assert.Equal(t, payload, again)
}

func TestQRGeneratorTimestampReference(t *testing.T) {
	gen := NewQRGenerator("PAY", "USD")
	gen.Now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }

	payload := gen.Generate(BankAccount{BankID: "ACB", AccountNumber: "1", AccountName: "A"}, decimal.RequireFromString("10.5"), "")
	assert.Equal(t, "PAY|ACB|1|A|10.5|20260504030201|USD", payload)
}

func TestQRGeneratorEscapesSeparator(t *testing.T) {
	gen := NewQRGenerator("", "")

	payload := gen.Generate(BankAccount{BankID: "VCB", AccountNumber: "1", AccountName: "A|B"}, decimal.NewFromInt(1), "abc")
	assert.Equal(t, "BANKQR|VCB|1|A B|1|abc|VND", payload)
}

func TestQRGeneratorKeepsMultiByteReferenceIntact(t *testing.T) {
	gen := NewQRGenerator("", "")

	payload := gen.Generate(BankAccount{BankID: "VCB", AccountNumber: "1", AccountName: "A"}, decimal.NewFromInt(1), "Đơn-hàng-số-12")
	assert.Equal(t, "BANKQR|VCB|1|A|1|Đơn-hàng|VND", payload)
}
