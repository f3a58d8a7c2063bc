package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
)

const secret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.Middleware(secret))
	router.GET("/test", handlers...)
	return router
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func TestMiddleware_NoToken(t *testing.T) {
	router := newRouter(ok)

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	router := newRouter(ok)

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_ValidToken(t *testing.T) {
	tokenString, err := auth.IssueToken(secret, auth.Actor{ID: 12, Kind: auth.ActorCompany, Name: "maderas-sur"})
	require.NoError(t, err)

	router := newRouter(func(c *gin.Context) {
		actor, exists := auth.ActorFrom(c)
		assert.True(t, exists)
		assert.Equal(t, int64(12), actor.ID)
		assert.True(t, actor.IsCompany())
		assert.Equal(t, "maderas-sur", actor.Name)
		ok(c)
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_UnknownKindRejected(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "3", "kind": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	tokenString, _ := token.SignedString([]byte(secret))

	router := newRouter(ok)
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_ExpiredTokenRejected(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Kind: auth.ActorClient,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "5",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	router := newRouter(ok)
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParseToken_RequiresExpiration(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "5", "kind": "client"})
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = auth.ParseToken(secret, tokenString)

	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}

func TestIssueToken_SetsExpiry(t *testing.T) {
	tokenString, err := auth.IssueToken(secret, auth.Actor{ID: 5, Kind: auth.ActorClient, Name: "ana"})
	require.NoError(t, err)

	claims := &auth.Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tokenString, claims)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(auth.TokenTTL), claims.ExpiresAt.Time, time.Minute)

	actor, err := auth.ParseToken(secret, tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(5), actor.ID)
}

func TestRequireKind(t *testing.T) {
	tokenString, err := auth.IssueToken(secret, auth.Actor{ID: 5, Kind: auth.ActorClient, Name: "ana"})
	require.NoError(t, err)

	router := newRouter(auth.RequireKind(auth.ActorCompany), ok)
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
