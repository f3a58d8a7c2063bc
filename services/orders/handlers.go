package orders

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
)

// Service é o que os handlers precisam do caso de uso
type Service interface {
	UpdateOrderState(ctx context.Context, actor auth.Actor, orderID int64, update ShipmentUpdate) (*Order, error)
	Get(ctx context.Context, actor auth.Actor, orderID int64) (*Order, error)
	GetByPayment(ctx context.Context, actor auth.Actor, paymentID int64) (*Order, error)
	ListByClient(ctx context.Context, actor auth.Actor, clientID int64) ([]Order, error)
}

// OrderHandler contém os handlers HTTP de pedidos
type OrderHandler struct {
	useCase Service
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase Service, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// UpdateState é o endpoint POST /orders/:id/state
func (h *OrderHandler) UpdateState(c *gin.Context) {
	orderID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	var req ShipmentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.BadRequest(c, err)
		return
	}
	actor, _ := auth.ActorFrom(c)

	ctx, span := h.tracer.Start(c.Request.Context(), "update_order_state_http")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_id", orderID))

	order, err := h.useCase.UpdateOrderState(ctx, actor, orderID, req)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, order)
}

// Get é o endpoint GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	actor, _ := auth.ActorFrom(c)

	order, err := h.useCase.Get(c.Request.Context(), actor, orderID)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, order)
}

// GetByPayment é o endpoint GET /payments/:id/order
func (h *OrderHandler) GetByPayment(c *gin.Context) {
	paymentID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	actor, _ := auth.ActorFrom(c)

	order, err := h.useCase.GetByPayment(c.Request.Context(), actor, paymentID)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, order)
}

// ListByClient é o endpoint GET /clients/:id/orders
func (h *OrderHandler) ListByClient(c *gin.Context) {
	clientID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	actor, _ := auth.ActorFrom(c)

	list, err := h.useCase.ListByClient(c.Request.Context(), actor, clientID)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, list)
}
