package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/reviews/:review_id", normalizePath("/api/v1/reviews/:review_id", "/api/v1/reviews/123"))
	assert.Equal(t, "unmatched", normalizePath("", "/nope"))
	assert.Equal(t, "unknown", normalizePath("", ""))
}

func TestGinPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-test"))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("metrics-test", "GET", "/items/:id", "200"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	after := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("metrics-test", "GET", "/items/:id", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordEvaluation_EmptyReason(t *testing.T) {
	before := testutil.ToFloat64(ComplaintEvaluations.WithLabelValues("generated", "none"))

	RecordEvaluation("generated", "")

	assert.Equal(t, before+1, testutil.ToFloat64(ComplaintEvaluations.WithLabelValues("generated", "none")))
}

func TestRecordTextGeneration_Status(t *testing.T) {
	RecordTextGeneration("template", 10*time.Millisecond, nil)
	RecordTextGeneration("template", 10*time.Millisecond, errors.New("boom"))

	// по одной серии на status=success и status=error
	assert.GreaterOrEqual(t, testutil.CollectAndCount(TextGenerationDuration), 2)
}
