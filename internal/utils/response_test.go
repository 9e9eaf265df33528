// internal/utils/response_test.go
package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatedResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	result := CreatePaginationResult([]string{"a", "b"}, 5, PaginationParams{Page: 1, Limit: 2})
	PaginatedResponse(c, result)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-Total-Count"))
	assert.Equal(t, "3", w.Header().Get("X-Total-Pages"))

	var body struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
		Meta    Meta     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"a", "b"}, body.Data)
	require.NotNil(t, body.Meta.Pagination)
	assert.Equal(t, PageMeta{Page: 1, Limit: 2, Total: 5, TotalPages: 3}, *body.Meta.Pagination)
}

func TestErrorResponseKeepsExplicitMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ConflictResponse(c, "already paid")

	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "already paid", body.Error.Message)
	assert.Nil(t, body.Meta)
}

func TestContextAccessors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, "en", GetLangFromContext(c))
	_, ok := GetUserUUIDFromContext(c)
	assert.False(t, ok)

	c.Set(ContextKeyLang, "vi")
	c.Set(ContextKeyUserID, "not-a-uuid")
	c.Set(ContextKeyUserRole, "business")

	assert.Equal(t, "vi", GetLangFromContext(c))
	_, ok = GetUserUUIDFromContext(c)
	assert.False(t, ok)
	role, ok := GetUserRoleFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, "business", role)
}
