package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/alert-arbiter/internal/auth"
	"github.com/OldStager01/alert-arbiter/pkg/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("a"), "half a window refills one token")
	assert.False(t, rl.Allow("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "refill is capped at the limit")
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("a"))
	}
}

func TestEndpointRateLimiter(t *testing.T) {
	erl := NewEndpointRateLimiter()
	erl.AddEndpoint("/engagement", 1, time.Minute)

	r := gin.New()
	r.Use(erl.Middleware())
	r.POST("/engagement", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/events", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(method, path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/engagement"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/engagement"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/engagement", nil))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/events"))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/events"))
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	svc := auth.NewService("secret", "alert-arbiter", time.Hour)
	expired := auth.NewService("secret", "alert-arbiter", -time.Hour)

	r := gin.New()
	r.POST("/engagement", JWTAuth(svc), RequireRole(auth.RoleOperator), func(c *gin.Context) {
		c.String(http.StatusOK, GetOperator(c))
	})

	operator, err := svc.GenerateToken("jane.doe", auth.RoleOperator)
	require.NoError(t, err)
	viewer, err := svc.GenerateToken("dash", auth.RoleViewer)
	require.NoError(t, err)
	stale, err := expired.GenerateToken("jane.doe", auth.RoleOperator)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "missing authorization header"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "invalid authorization header format"},
		{"expired", "Bearer " + stale, http.StatusUnauthorized, "token expired"},
		{"viewer", "Bearer " + viewer, http.StatusForbidden, "insufficient role"},
		{"operator", "Bearer " + operator, http.StatusOK, "jane.doe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/engagement", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := CORSFromConfig(config.CORSConfig{
		AllowedOrigins:   []string{"http://dash.local"},
		AllowCredentials: true,
	})

	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/events", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "http://dash.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://dash.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), TraceIDHeader)

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTraceID(t *testing.T) {
	r := gin.New()
	r.Use(TraceID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetTraceID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(TraceIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, strings.Repeat("a", 100))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36, "oversized ids are replaced")
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
