// internal/middleware/middleware_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestPreferredLanguage(t *testing.T) {
	supported := []string{"en", "vi"}
	cases := map[string]string{
		"":                        "en",
		"vi":                      "vi",
		"vi-VN,vi;q=0.9,en;q=0.8": "vi",
		"en-US,en;q=0.9":          "en",
		"fr-FR":                   "en",
		" VI-vn ; q=1":            "vi",
		"fr-FR,vi_VN;q=0.8":       "vi",
		",;q=0.1,vi":              "vi",
	}

	for header, want := range cases {
		assert.Equal(t, want, preferredLanguage(header, supported), "header %q", header)
	}

	// Without a Vietnamese locale loaded everything falls back to English.
	assert.Equal(t, "en", preferredLanguage("vi-VN", []string{"en"}))
}

func TestRoleRequired(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Role"); role != "" {
			c.Set("user_role", role)
		}
		c.Next()
	})
	r.GET("/sellers", SellerRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", RoleRequired(i18n.KeyAdminAccessDenied, models.UserRoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		path string
		role string
		want int
	}{
		{"/sellers", "business", http.StatusOK},
		{"/sellers", "admin", http.StatusOK},
		{"/sellers", "farmer", http.StatusForbidden},
		{"/sellers", "", http.StatusForbidden},
		{"/admin", "admin", http.StatusOK},
		{"/admin", "business", http.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.role != "" {
			req.Header.Set("X-Role", tc.role)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "%s as %q", tc.path, tc.role)
	}
}

func TestAuthRequiredRejectsMissingAndMalformedTokens(t *testing.T) {
	utils.SetJWTSecret("test-secret")

	r := gin.New()
	r.GET("/me", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRateLimiterKeysByUser(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-User"); user != "" {
			c.Set("user_id", user)
		}
		c.Next()
	})
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("alice"))
	assert.Equal(t, http.StatusOK, call("alice"))
	assert.Equal(t, http.StatusTooManyRequests, call("alice"))

	// Another user has their own bucket.
	assert.Equal(t, http.StatusOK, call("bob"))
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(rate.Every(time.Second), 1)
	limiter.now = func() time.Time { return now }

	limiter.getVisitor("a")
	now = now.Add(2 * time.Minute)
	limiter.getVisitor("b")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, limiter.Cleanup())
	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "b")
}

func TestExtractResource(t *testing.T) {
	assert.Equal(t, "checkout", extractResourceType("/v1/checkout/3f0c2a4e-6a7d-4a53-9d7b-6c9fa1d2e5b1/proceed"))
	assert.Equal(t, "3f0c2a4e-6a7d-4a53-9d7b-6c9fa1d2e5b1", extractResourceID("/v1/checkout/3f0c2a4e-6a7d-4a53-9d7b-6c9fa1d2e5b1/proceed"))
	assert.Empty(t, extractResourceID("/v1/products"))
}
