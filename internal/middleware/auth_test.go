package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator(t *testing.T) {
	validator := NewJWTValidator("test-secret")

	t.Run("accepts a token it issued", func(t *testing.T) {
		token, err := validator.IssueToken("seed-job", time.Hour)
		require.NoError(t, err)

		claims, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "seed-job", claims.Subject)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token, err := validator.IssueToken("seed-job", -time.Minute)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := NewJWTValidator("other-secret")
		token, err := other.IssueToken("seed-job", time.Hour)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := validator.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	validator := NewJWTValidator("test-secret")

	newRouter := func() *gin.Engine {
		router := gin.New()
		router.POST("/protected", AuthMiddleware(validator), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"subject": c.GetString("subject")})
		})
		return router
	}

	t.Run("missing header is unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/protected", nil)
		newRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/protected", nil)
		req.Header.Set("Authorization", "Basic abc123")
		newRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid bearer token passes through", func(t *testing.T) {
		token, err := validator.IssueToken("seed-job", time.Hour)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		newRouter().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "seed-job")
	})
}
