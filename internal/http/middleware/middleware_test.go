package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signchain/signchain/internal/model"
)

type stubParser struct{}

func (stubParser) Parse(token string) (model.Principal, error) {
	if token != "good" {
		return model.Principal{}, errors.New("bad token")
	}
	return model.Principal{Address: "ALICE", WalletType: "pera"}, nil
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	router := newEngine()
	router.Use(Auth(stubParser{}))
	router.GET("/me", func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		require.True(t, ok)
		c.String(http.StatusOK, principal.Address)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer good", status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(router, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "ALICE", w.Body.String())
			}
		})
	}
}

func TestMustPrincipalWithoutAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := MustPrincipal(c)
	assert.False(t, ok)

	c.Set(principalKey, "not a principal")
	_, ok = MustPrincipal(c)
	assert.False(t, ok)
}

func TestRequestID(t *testing.T) {
	router := newEngine()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/id", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(router, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRecoveryReturnsJSON(t *testing.T) {
	var buf bytes.Buffer
	router := newEngine()
	router.Use(RequestID(), Recovery(zerolog.New(&buf)))
	router.GET("/panic", func(*gin.Context) {
		panic("boom")
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"request_id"`)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	router := newEngine()
	router.Use(RequestID(), RequestLogger(zerolog.New(&buf)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	for _, path := range []string{"/ok", "/bad", "/fail"} {
		serve(router, httptest.NewRequest(http.MethodGet, path, nil))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"level":"info"`)
	assert.Contains(t, lines[0], `"path":"/ok"`)
	assert.Contains(t, lines[1], `"level":"warn"`)
	assert.Contains(t, lines[2], `"level":"error"`)
	assert.Contains(t, lines[2], `"status":502`)
}

func TestRateLimitPerClient(t *testing.T) {
	router := newEngine()
	router.Use(RateLimit(NewRateLimiter(0.001, 2), zerolog.Nop()))
	router.GET("/gen", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/gen", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(router, req).Code
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("10.0.0.2"))
}

func TestRateLimitKeysOnWallet(t *testing.T) {
	router := newEngine()
	router.Use(Auth(stubParser{}), RateLimit(NewRateLimiter(0.001, 1), zerolog.Nop()))
	router.GET("/gen", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/gen", nil)
		req.RemoteAddr = ip + ":1234"
		req.Header.Set("Authorization", "Bearer good")
		return serve(router, req)
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1").Code)
	w := request("10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1000", w.Header().Get("Retry-After"))
}

func TestRateLimiterRefillsAndEvicts(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("a"))

	now = now.Add(limiterIdleTTL + time.Second)
	assert.True(t, limiter.Allow("b"))
	limiter.mu.Lock()
	_, kept := limiter.limiters["a"]
	limiter.mu.Unlock()
	assert.False(t, kept)
}
