// internal/checkout/card.go
package checkout

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	CardFieldNumber = "card_number"
	CardFieldExpiry = "expiry"
	CardFieldCVV    = "cvv"
	CardFieldHolder = "holder_name"

	cardNumberLength = 16
)

var (
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
	cardStripper  = strings.NewReplacer(" ", "", "-", "")
)

// CardValidation holds at most one message per field.
type CardValidation struct {
	Valid       bool              `json:"valid"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// Digits returns the card number with separators removed.
func (c CardDetails) Digits() string {
	return cardStripper.Replace(strings.TrimSpace(c.Number))
}

// Masked returns the last four digits behind a fixed mask.
func (c CardDetails) Masked() string {
	digits := c.Digits()
	if len(digits) < 4 {
		return "****"
	}
	return "**** **** **** " + digits[len(digits)-4:]
}

// ExpiryMonthYear parses MM/YY into a month and a four-digit year.
func (c CardDetails) ExpiryMonthYear() (int, int, bool) {
	match := expiryPattern.FindStringSubmatch(strings.TrimSpace(c.Expiry))
	if match == nil {
		return 0, 0, false
	}
	month, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[2])
	return month, 2000 + year, true
}

// ValidateCard checks a card capture against the clock. The card is still
// valid during its expiry month.
func ValidateCard(card CardDetails, now time.Time) CardValidation {
	fieldErrors := make(map[string]string)

	digits := card.Digits()
	switch {
	case digits == "":
		fieldErrors[CardFieldNumber] = "card number is required"
	case !isDigits(digits):
		fieldErrors[CardFieldNumber] = "card number must contain only digits"
	case len(digits) != cardNumberLength:
		fieldErrors[CardFieldNumber] = "card number must be 16 digits"
	}

	if strings.TrimSpace(card.Expiry) == "" {
		fieldErrors[CardFieldExpiry] = "expiry date is required"
	} else if month, year, ok := card.ExpiryMonthYear(); !ok {
		fieldErrors[CardFieldExpiry] = "expiry must be in MM/YY format"
	} else if month < 1 || month > 12 {
		fieldErrors[CardFieldExpiry] = "expiry month must be between 01 and 12"
	} else if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		fieldErrors[CardFieldExpiry] = "card has expired"
	}

	cvv := strings.TrimSpace(card.CVV)
	if cvv == "" {
		fieldErrors[CardFieldCVV] = "CVV is required"
	} else if !cvvPattern.MatchString(cvv) {
		fieldErrors[CardFieldCVV] = "CVV must be 3 or 4 digits"
	}

	if strings.TrimSpace(card.HolderName) == "" {
		fieldErrors[CardFieldHolder] = "cardholder name is required"
	}

	if len(fieldErrors) == 0 {
		return CardValidation{Valid: true}
	}
	return CardValidation{Valid: false, FieldErrors: fieldErrors}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
