package router

import (
	"fmt"
	"net/http"

	"github.com/dealer/backend/internal/infrastructure/config"
	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/dealer/backend/internal/interfaces/http/dto"
	"github.com/dealer/backend/internal/interfaces/http/handler"
	"github.com/dealer/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the endpoint groups mounted on the engine
type Handlers struct {
	Deals     *handler.DealHandler
	Documents *handler.DocumentHandler
	System    *handler.SystemHandler
}

// NewEngine builds the gin engine with the full middleware chain and every
// route registered. meter may be nil when metrics are disabled.
func NewEngine(cfg *config.Config, log *zap.Logger, meter metric.Meter, h Handlers) (*gin.Engine, error) {
	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("setup validator: %w", err)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before recovery and access
	// logs run, and the span must be open before the logger reads it.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	metrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("setup http metrics: %w", err)
	}
	engine.Use(metrics)

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Health)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.SkipPaths = append(tenantCfg.SkipPaths, r.BasePath()+"/system")
	r.Use(middleware.TenantMiddlewareWithConfig(tenantCfg), middleware.SpanAttributes())

	r.Register(DealRoutes(h.Deals, h.Documents))
	r.Register(DocumentRoutes(h.Documents))
	var publicMW []gin.HandlerFunc
	if cfg.HTTP.PublicRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.PublicRateLimit, cfg.HTTP.PublicRateBurst)
		publicMW = append(publicMW, middleware.RateLimit(limiter))
	}
	r.Register(PublicRoutes(h.Documents, publicMW...))
	r.Register(SystemRoutes(h.System))
	r.Setup()

	return engine, nil
}
