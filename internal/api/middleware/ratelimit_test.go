package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	limiter := NewKeyedLimiter(1, 2)

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"), "burst of two is exhausted")

	assert.True(t, limiter.Allow("b"), "other keys have their own budget")
}

func TestRateLimitByUser(t *testing.T) {
	limiter := NewKeyedLimiter(1, 1)
	e := echo.New()
	handler := RateLimitByUser(limiter)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	call := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", userID)
		require.NoError(t, handler(c))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, call("user-1"))
	assert.Equal(t, http.StatusOK, call("user-2"))
}
