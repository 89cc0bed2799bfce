package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealer/backend/internal/infrastructure/config"
	"github.com/dealer/backend/internal/interfaces/http/dto"
	"github.com/dealer/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		App:  config.AppConfig{Name: "dealer-backend", Env: "test"},
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 10},
	}
	// Services are nil: these tests only reach the middleware and system routes.
	engine, err := NewEngine(cfg, zap.NewNop(), nil, Handlers{
		Deals:     handler.NewDealHandler(nil),
		Documents: handler.NewDocumentHandler(nil),
		System:    handler.NewSystemHandler("dealer-backend", "test"),
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngine_Routes(t *testing.T) {
	engine := newTestEngine(t)

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/deals",
		"GET /api/v1/deals",
		"GET /api/v1/deals/:id",
		"PATCH /api/v1/deals/:id",
		"POST /api/v1/deals/:id/payments",
		"POST /api/v1/deals/:id/payments/:paymentId/refund",
		"POST /api/v1/deals/:id/signatures",
		"POST /api/v1/deals/:id/invoice",
		"POST /api/v1/deals/:id/deliver",
		"POST /api/v1/deals/:id/complete",
		"POST /api/v1/deals/:id/cancel",
		"GET /api/v1/deals/:id/documents",
		"POST /api/v1/deals/:id/documents",
		"GET /api/v1/documents/:id",
		"POST /api/v1/documents/:id/regenerate",
		"GET /api/v1/public/documents/:token",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
		"GET /health",
		"GET /ready",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestNewEngine_Middleware(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("deal routes require a tenant", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/deals")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("system and health routes do not", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	})

	t.Run("unknown route is a json 404", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/v1/nowhere")
		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/deals", nil)
		req.ContentLength = 4 << 10
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestNewEngine_ShareLinkRateLimit(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Name: "dealer-backend", Env: "test"},
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 10, PublicRateLimit: 0.01, PublicRateBurst: 1},
	}
	engine, err := NewEngine(cfg, zap.NewNop(), nil, Handlers{
		Deals:     handler.NewDealHandler(nil),
		Documents: handler.NewDocumentHandler(nil),
		System:    handler.NewSystemHandler("dealer-backend", "test"),
	})
	require.NoError(t, err)

	// The first request passes the limiter; the nil service then fails it.
	first := serve(engine, http.MethodGet, "/api/v1/public/documents/guess")
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := serve(engine, http.MethodGet, "/api/v1/public/documents/guess-again")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	t.Run("tenant routes are not limited", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
		}
	})
}
