package router

import (
	"github.com/dealer/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// DealRoutes groups the deal lifecycle endpoints and the documents issued
// against a deal
func DealRoutes(deals *handler.DealHandler, documents *handler.DocumentHandler) *DomainGroup {
	g := NewDomainGroup("deals", "/deals")
	g.POST("", deals.Create)
	g.GET("", deals.List)
	g.GET("/:id", deals.Get)
	g.PATCH("/:id", deals.Update)

	g.POST("/:id/payments", deals.TakePayment)
	g.POST("/:id/payments/:paymentId/refund", deals.RefundPayment)
	g.POST("/:id/signatures", deals.RecordSignature)

	g.POST("/:id/invoice", deals.Invoice)
	g.POST("/:id/deliver", deals.Deliver)
	g.POST("/:id/complete", deals.Complete)
	g.POST("/:id/cancel", deals.Cancel)

	g.GET("/:id/documents", documents.ListForDeal)
	g.POST("/:id/documents", documents.Issue)
	return g
}

// DocumentRoutes groups the tenant-scoped document endpoints
func DocumentRoutes(documents *handler.DocumentHandler) *DomainGroup {
	g := NewDomainGroup("documents", "/documents")
	g.GET("/:id", documents.Get)
	g.POST("/:id/regenerate", documents.Regenerate)
	return g
}

// PublicRoutes serves share links. The tenant middleware skips this prefix,
// so mw usually carries a rate limiter.
func PublicRoutes(documents *handler.DocumentHandler, mw ...gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("public", "/public").Use(mw...)
	g.GET("/documents/:token", documents.GetShared)
	return g
}

// SystemRoutes groups the info and ping endpoints
func SystemRoutes(system *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", system.GetSystemInfo)
	g.GET("/ping", system.Ping)
	return g
}
