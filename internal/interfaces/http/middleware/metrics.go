package middleware

import (
	"time"

	"github.com/dealer/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// httpDurationBuckets are latency boundaries in seconds
var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// HTTPMetrics records http_server_request_total{method,route,status_code}
// and http_server_request_duration_seconds{method,route}. Routes are gin
// patterns so ids never become label values. A nil meter disables it.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}

	requests, err := telemetry.NewCounter(meter, "http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpDurationBuckets...),
	)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		ctx := c.Request.Context()
		method := attribute.String("http.method", c.Request.Method)
		routeAttr := attribute.String("http.route", route)

		requests.Inc(ctx, method, routeAttr, attribute.Int("http.status_code", c.Writer.Status()))
		duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(method, routeAttr))
	}, nil
}
