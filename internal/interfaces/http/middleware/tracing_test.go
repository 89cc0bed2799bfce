package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func spanAttr(s sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	sr := setupTestTracer(t)
	tenantID := uuid.New()

	router := gin.New()
	router.Use(RequestID(), Tracing("dealer-test"), TenantMiddleware(), SpanAttributes())
	router.POST("/api/v1/deals/:id/complete", func(c *gin.Context) {
		c.Status(http.StatusUnprocessableEntity)
	})
	router.GET("/api/v1/deals/:id", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals/123/complete", nil)
	req.Header.Set(TenantHeaderKey, tenantID.String())
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/deals/123", nil)
	req.Header.Set(TenantHeaderKey, tenantID.String())
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	complete := spans[0]
	assert.Contains(t, complete.Name(), "/api/v1/deals/:id/complete")
	v, ok := spanAttr(complete, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", v.AsString())
	v, ok = spanAttr(complete, "tenant_id")
	require.True(t, ok)
	assert.Equal(t, tenantID.String(), v.AsString())
	v, ok = spanAttr(complete, "http.client_error")
	require.True(t, ok)
	assert.True(t, v.AsBool())
	assert.NotEqual(t, codes.Error, complete.Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
