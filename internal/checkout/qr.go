// internal/checkout/qr.go
package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultQRScheme   = "BANKQR"
	DefaultQRCurrency = "VND"

	qrSeparator    = "|"
	qrRefLength    = 8
	qrRefTimestamp = "20060102150405"
)

// BankAccount is the receiving account rendered into transfer QR codes.
type BankAccount struct {
	BankID        string `json:"bank_id"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// QRGenerator renders a deterministic transfer payload.
type QRGenerator struct {
	Scheme   string
	Currency string
	Now      func() time.Time
}

func NewQRGenerator(scheme, currency string) QRGenerator {
	if scheme == "" {
		scheme = DefaultQRScheme
	}
	if currency == "" {
		currency = DefaultQRCurrency
	}
	return QRGenerator{Scheme: scheme, Currency: currency, Now: time.Now}
}

// Generate builds scheme|bank|account|name|amount|reference|currency. The
// reference is the first 8 characters of transactionRef, or a timestamp when
// no transaction exists yet.
func (g QRGenerator) Generate(bank BankAccount, amount decimal.Decimal, transactionRef string) string {
	ref := transactionRef
	if ref == "" {
		now := time.Now
		if g.Now != nil {
			now = g.Now
		}
		ref = now().Format(qrRefTimestamp)
	} else if runes := []rune(ref); len(runes) > qrRefLength {
		ref = string(runes[:qrRefLength])
	}

	fields := []string{
		g.Scheme,
		bank.BankID,
		bank.AccountNumber,
		bank.AccountName,
		amount.String(),
		ref,
		g.Currency,
	}
	for i, field := range fields {
		fields[i] = strings.ReplaceAll(field, qrSeparator, " ")
	}

	return strings.Join(fields, qrSeparator)
}
