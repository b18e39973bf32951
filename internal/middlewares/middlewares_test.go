package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
	"github.com/Gopher0727/Fredagslunchen/middleware/jwt"
	"github.com/Gopher0727/Fredagslunchen/utils/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetUint(ContextUserID),
			"role":    c.GetString(ContextRole),
		})
	})
	r.GET("/", handlers...)
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwt.NewTokenManager("secret", 1, 24)
	r := newRouter(AuthMiddleware(tokens))

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doGet(r, "garbage").Code)
	})

	t.Run("token from another secret", func(t *testing.T) {
		other, err := jwt.NewTokenManager("other", 1, 24).GenerateToken(1, "anna", models.UserRoleUser)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, doGet(r, other).Code)
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		token, err := tokens.GenerateToken(42, "anna", models.UserRoleUser)
		require.NoError(t, err)
		w := doGet(r, token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":42,"role":"USER"}`, w.Body.String())
	})
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"":             "",
	}
	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		assert.Equal(t, want, BearerToken(c), header)
	}
}

func TestAdminOnly(t *testing.T) {
	tokens := jwt.NewTokenManager("secret", 1, 24)
	r := newRouter(AuthMiddleware(tokens), AdminOnly())

	user, err := tokens.GenerateToken(1, "anna", models.UserRoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doGet(r, user).Code)

	admin, err := tokens.GenerateToken(2, "root", models.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doGet(r, admin).Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := ratelimit.NewFixedWindowLimiter(client, nil, true)
	r := newRouter(RateLimit(limiter, "login", ratelimit.PerMinute(2)))

	w := doGet(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = doGet(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = doGet(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	unlimited := newRouter(RateLimit(nil, "login", ratelimit.PerMinute(1)))
	for range 3 {
		assert.Equal(t, http.StatusOK, doGet(unlimited, "").Code)
	}
}
