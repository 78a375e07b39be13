package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTAuthMiddlewareAcceptsConfiguredSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()
	tokenString := signToken(t, "configured-secret", jwt.MapClaims{
		"user_id": userID.String(),
		"role":    "organizer",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	var gotUserID uuid.UUID
	var gotRole string
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware("configured-secret"), func(c *gin.Context) {
		gotUserID = c.MustGet("user_id").(uuid.UUID)
		gotRole = c.MustGet("role").(string)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, gotUserID)
	assert.Equal(t, "organizer", gotRole)
}

func TestJWTAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokenString := signToken(t, "some-other-secret", jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware("configured-secret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddlewareRejectsMissingBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware("configured-secret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "configured-secret")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
