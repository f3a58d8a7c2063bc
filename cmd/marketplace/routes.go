package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
	"github.com/matheusmosca/furniture-marketplace/services/ideas"
	"github.com/matheusmosca/furniture-marketplace/services/invoices"
	"github.com/matheusmosca/furniture-marketplace/services/messages"
	"github.com/matheusmosca/furniture-marketplace/services/orders"
	"github.com/matheusmosca/furniture-marketplace/services/payments"
)

type handlers struct {
	catalog  *catalog.CatalogHandler
	ideas    *ideas.IdeaHandler
	payments *payments.PaymentHandler
	orders   *orders.OrderHandler
	invoices *invoices.InvoiceHandler
	messages *messages.MessageHandler
}

func newRouter(serviceName, jwtSecret string, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	api := r.Group("/api", auth.Middleware(jwtSecret))
	companyOnly := auth.RequireKind(auth.ActorCompany)
	clientOnly := auth.RequireKind(auth.ActorClient)

	// Catalog
	api.GET("/catalog/:category", h.catalog.ListProducts)
	api.GET("/catalog/:category/:id", h.catalog.GetProduct)
	api.POST("/catalog/:category/:id/toggle", companyOnly, h.catalog.ToggleActive)

	// Ideas
	api.POST("/ideas", clientOnly, h.ideas.Submit)
	api.GET("/ideas", h.ideas.List)
	api.GET("/ideas/:id", h.ideas.Get)
	api.POST("/ideas/:id/accept", companyOnly, h.ideas.Accept())
	api.POST("/ideas/:id/reject", companyOnly, h.ideas.Reject)
	api.POST("/ideas/:id/complete", companyOnly, h.ideas.Complete())
	api.POST("/ideas/:id/finalize", companyOnly, h.ideas.Finalize())
	api.POST("/ideas/:id/permission-request", companyOnly, h.ideas.RequestPermission)
	api.POST("/ideas/:id/permission-grant", clientOnly, h.ideas.GrantPermission())
	api.POST("/ideas/:id/publish", companyOnly, h.ideas.Publish)
	api.GET("/ideas/:id/messages", h.messages.List(messages.ParentIdea))
	api.POST("/ideas/:id/messages", h.messages.Post(messages.ParentIdea))

	// Payments
	api.POST("/payments", clientOnly, h.payments.Submit)
	api.GET("/payments", companyOnly, h.payments.ListByState)
	api.GET("/payments/:id", h.payments.Get)
	api.POST("/payments/:id/confirm", companyOnly, h.payments.Confirm)
	api.POST("/payments/:id/reject", companyOnly, h.payments.Reject)
	api.GET("/payments/:id/order", h.orders.GetByPayment)
	api.GET("/payments/:id/invoice", h.invoices.GetByPayment)
	api.GET("/payments/:id/messages", h.messages.List(messages.ParentPayment))
	api.POST("/payments/:id/messages", h.messages.Post(messages.ParentPayment))

	// Orders
	api.GET("/orders/:id", h.orders.Get)
	api.POST("/orders/:id/state", companyOnly, h.orders.UpdateState)

	// Clients
	api.GET("/clients/:id/payments", h.payments.ListByClient)
	api.GET("/clients/:id/orders", h.orders.ListByClient)

	return r
}
