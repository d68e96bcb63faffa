package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payflow/internal/metrics"
	"payflow/pkg/logger"
	"payflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCorrelationID_GeneratesWhenAbsent(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationID())

	var captured string
	r.GET("/", func(c *gin.Context) {
		captured = c.GetString(response.CtxCorrelationID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, captured)
	_, err := uuid.Parse(captured)
	assert.NoError(t, err)
	assert.Equal(t, captured, w.Header().Get(HeaderCorrelationID))
}

func TestCorrelationID_EchoesCallerValue(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderCorrelationID, "corr-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "corr-42", w.Header().Get(HeaderCorrelationID))
}

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("info", &buf)

	r := gin.New()
	r.Use(CorrelationID(), RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/ok"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"correlation_id"`)
	// 4xx escalates to warn
	assert.Contains(t, out, `"level":"warn"`)
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_001")
}

func TestMaxBodySize_RejectsOversizedBody(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodySize(16))
	r.POST("/", func(c *gin.Context) {
		var v map[string]interface{}
		if err := c.ShouldBindJSON(&v); err != nil {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	body := strings.NewReader(`{"key":"` + strings.Repeat("x", 64) + `"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMaxBodySize_AllowsSmallBody(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodySize(1024))
	r.POST("/", func(c *gin.Context) {
		var v map[string]interface{}
		require.NoError(t, c.ShouldBindJSON(&v))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"key":"v"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_ObservesRouteTemplate(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(HTTPMetrics(m))
	r.GET("/api/v1/transfers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/transfers/abc", nil))

	// One series labelled with the route template, not the raw path.
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
	count := testutil.CollectAndCount(m.HTTPDuration, "http_request_duration_seconds")
	assert.Equal(t, 1, count)
}

func TestHTTPMetrics_UnmatchedRouteLabel(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(HTTPMetrics(m))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}
