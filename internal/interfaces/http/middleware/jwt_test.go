package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/budget/backend/internal/infrastructure/auth"
	"github.com/budget/backend/internal/infrastructure/config"
	"github.com/budget/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwtTestService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-for-signing-tokens",
		Issuer:          "budget-backend",
		TokenExpiration: expiration,
	})
}

func jwtTestRouter(svc *auth.JWTService) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: svc,
		SkipPaths:  []string{"/open"},
	}))

	var seenUserID string
	r.GET("/protected", func(c *gin.Context) {
		// The audit hooks read the user id from the request context.
		seenUserID = logger.GetUserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c)})
	})
	r.GET("/open", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, &seenUserID
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	r, _ := jwtTestRouter(jwtTestService(time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
}

func TestJWTMiddlewareRejectsMalformedHeader(t *testing.T) {
	r, _ := jwtTestRouter(jwtTestService(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddlewareRejectsExpiredToken(t *testing.T) {
	expiredSvc := jwtTestService(-time.Minute)
	token, _, err := expiredSvc.GenerateToken(uuid.New(), "")
	require.NoError(t, err)

	r, _ := jwtTestRouter(jwtTestService(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	svc := jwtTestService(time.Hour)
	userID := uuid.New()
	token, _, err := svc.GenerateToken(userID, "director@example.gov")
	require.NoError(t, err)

	r, seenUserID := jwtTestRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Equal(t, userID.String(), *seenUserID)
}

func TestJWTMiddlewareSkipsConfiguredPaths(t *testing.T) {
	r, _ := jwtTestRouter(jwtTestService(time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
