package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hireflow/internal/auth"
)

func authTestHandler(c echo.Context) error {
	return c.String(http.StatusOK, UserID(c))
}

func doAuthRequest(t *testing.T, verifier *auth.Verifier, authorization string, extra ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := echo.HandlerFunc(authTestHandler)
	for i := len(extra) - 1; i >= 0; i-- {
		handler = extra[i](handler)
	}
	handler = RequireAuth(verifier)(handler)

	require.NoError(t, handler(c))
	return rec
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	token, err := verifier.Mint("user-1", auth.RoleCandidate, "Ada", time.Hour)
	require.NoError(t, err)

	rec := doAuthRequest(t, verifier, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	rec := doAuthRequest(t, auth.NewVerifier("test-secret"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	rec := doAuthRequest(t, auth.NewVerifier("test-secret"), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsForgedToken(t *testing.T) {
	forged, err := auth.NewVerifier("other-secret").Mint("user-1", auth.RoleCandidate, "", time.Hour)
	require.NoError(t, err)

	rec := doAuthRequest(t, auth.NewVerifier("test-secret"), "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	candidateToken, err := verifier.Mint("user-1", auth.RoleCandidate, "", time.Hour)
	require.NoError(t, err)

	rec := doAuthRequest(t, verifier, "Bearer "+candidateToken, RequireRole(auth.RoleCandidate))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doAuthRequest(t, verifier, "Bearer "+candidateToken, RequireRole(auth.RoleRecruiter))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
