package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"image-normalizer/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	// 桶空且窗口未推進
	assert.False(t, limiter.Allow())
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(1, time.Minute))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestBodySizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodySizeLimit(8))
	router.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	small := httptest.NewRecorder()
	router.ServeHTTP(small, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, small.Code)

	large := httptest.NewRecorder()
	router.ServeHTTP(large, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("way too large body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, large.Code)
}

func TestDeduplication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{DedupWindow: time.Minute}
	router := gin.New()
	router.Use(Deduplication(cfg))
	router.POST("/dedup-test", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/dedup-test", func(c *gin.Context) { c.Status(http.StatusOK) })

	body := `{"resource":"base64://AAAA"}`

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/dedup-test", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, first.Code)

	// 窗口內的相同請求被拒絕
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/dedup-test", strings.NewReader(body)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// 不同請求體不受影響
	third := httptest.NewRecorder()
	router.ServeHTTP(third, httptest.NewRequest(http.MethodPost, "/dedup-test", strings.NewReader(`{"resource":"base64://BBBB"}`)))
	assert.Equal(t, http.StatusOK, third.Code)

	// GET 請求不去重
	get := httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/dedup-test", nil))
	assert.Equal(t, http.StatusOK, get.Code)
	get = httptest.NewRecorder()
	router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/dedup-test", nil))
	assert.Equal(t, http.StatusOK, get.Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
}
