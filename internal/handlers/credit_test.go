// internal/handlers/credit_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateInterest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewCreditHandler(nil)
	r := gin.New()
	r.GET("/credit/interest", handler.CalculateInterest)

	get := func(query string) (*httptest.ResponseRecorder, apiResponse) {
		req := httptest.NewRequest(http.MethodGet, "/credit/interest?"+query, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var response apiResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w, response
	}

	w, response := get("principal=1000000&rate=12&days=90")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "29589.04", response.Data["interest"])
	assert.Equal(t, "1029589.04", response.Data["total_payable"])

	// A zero rate carries no interest.
	_, response = get("principal=500000&days=30")
	assert.Equal(t, "0", response.Data["interest"])
	assert.Equal(t, "500000", response.Data["total_payable"])

	for _, query := range []string{"principal=abc&days=30", "principal=-1&days=30", "principal=100&rate=-2&days=30", "principal=100&days=x"} {
		w, response = get(query)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
		assert.False(t, response.Success)
	}
}
