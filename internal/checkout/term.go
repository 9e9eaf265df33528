// internal/checkout/term.go
package checkout

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// TermCustom marks that the buyer typed the number of days.
	TermCustom = 0

	MinCustomTermDays = 1
	MaxCustomTermDays = 3650
)

// TermMenu is offered when the seller leaves the term to the buyer.
var TermMenu = []int{30, 90, 180, 365, 1095}

func IsMenuTerm(days int) bool {
	for _, option := range TermMenu {
		if option == days {
			return true
		}
	}
	return false
}

// ValidateCustomTerm parses a buyer-entered term in days.
func ValidateCustomTerm(input string) (int, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return 0, &ValidationError{
			Code:    CodeInvalidCustomTerm,
			Message: ErrMsgCustomTermRequired,
			Fields:  map[string]string{"custom_term": ErrMsgCustomTermRequired},
		}
	}

	days, err := strconv.Atoi(text)
	if err != nil {
		return 0, &ValidationError{
			Code:    CodeInvalidCustomTerm,
			Message: ErrMsgCustomTermNotNumber,
			Fields:  map[string]string{"custom_term": ErrMsgCustomTermNotNumber},
		}
	}

	if days < MinCustomTermDays || days > MaxCustomTermDays {
		msg := fmt.Sprintf(ErrMsgCustomTermRange, MinCustomTermDays, MaxCustomTermDays)
		return 0, &ValidationError{
			Code:    CodeInvalidCustomTerm,
			Message: msg,
			Fields:  map[string]string{"custom_term": msg},
		}
	}

	return days, nil
}
