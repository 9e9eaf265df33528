// internal/checkout/term_test.go
package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCustomTerm(t *testing.T) {
	for _, input := range []string{"1", " 45 ", "3650"} {
		days, err := ValidateCustomTerm(input)
		require.NoError(t, err, input)
		assert.Positive(t, days)
	}

	for _, input := range []string{"0", "-1", "3651", "", "abc", "12.5"} {
		_, err := ValidateCustomTerm(input)
		require.Error(t, err, input)

		verr, ok := AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidCustomTerm, verr.Code)
		assert.Contains(t, verr.Fields, "custom_term")
	}
}

func TestIsMenuTerm(t *testing.T) {
	for _, days := range []int{30, 90, 180, 365, 1095} {
		assert.True(t, IsMenuTerm(days))
	}
	assert.False(t, IsMenuTerm(60))
	assert.False(t, IsMenuTerm(TermCustom))
}
