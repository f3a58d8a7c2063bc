package payments

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
	"github.com/matheusmosca/furniture-marketplace/internal/storage"
)

// Service é o que os handlers precisam do caso de uso
type Service interface {
	Submit(ctx context.Context, actor auth.Actor, req SubmitRequest) (*Payment, error)
	ConfirmPayment(ctx context.Context, actor auth.Actor, paymentID int64, notes string) (*ConfirmResult, error)
	RejectPayment(ctx context.Context, actor auth.Actor, paymentID int64, reason string) (*Payment, error)
	Get(ctx context.Context, actor auth.Actor, paymentID int64) (*Payment, error)
	ListByClient(ctx context.Context, actor auth.Actor, clientID int64) ([]Payment, error)
	ListByState(ctx context.Context, actor auth.Actor, state State) ([]Payment, error)
}

// ConfirmRequest é o corpo de POST /payments/:id/confirm
type ConfirmRequest struct {
	Notes string `json:"notes"`
}

// RejectRequest é o corpo de POST /payments/:id/reject
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PaymentView acrescenta a URL assinada do comprovante
type PaymentView struct {
	*Payment
	ReceiptURL string `json:"receipt_url,omitempty"`
}

// PaymentHandler contém os handlers HTTP de pagamentos
type PaymentHandler struct {
	useCase Service
	files   storage.Resolver
	tracer  trace.Tracer
	logger  logrus.FieldLogger
}

// NewPaymentHandler cria uma nova instância de PaymentHandler
func NewPaymentHandler(useCase Service, files storage.Resolver, tracer trace.Tracer, logger logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{
		useCase: useCase,
		files:   files,
		tracer:  tracer,
		logger:  logger,
	}
}

// Submit é o endpoint POST /payments
func (h *PaymentHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.BadRequest(c, err)
		return
	}
	actor, _ := auth.ActorFrom(c)

	payment, err := h.useCase.Submit(c.Request.Context(), actor, req)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.Created(c, payment)
}

// Confirm é o endpoint POST /payments/:id/confirm
func (h *PaymentHandler) Confirm(c *gin.Context) {
	paymentID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	var req ConfirmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpresp.BadRequest(c, err)
			return
		}
	}
	actor, _ := auth.ActorFrom(c)

	ctx, span := h.tracer.Start(c.Request.Context(), "confirm_payment_http")
	defer span.End()
	span.SetAttributes(attribute.Int64("payment_id", paymentID))

	result, err := h.useCase.ConfirmPayment(ctx, actor, paymentID, req.Notes)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, result)
}

// Reject é o endpoint POST /payments/:id/reject
func (h *PaymentHandler) Reject(c *gin.Context) {
	paymentID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.BadRequest(c, err)
		return
	}
	actor, _ := auth.ActorFrom(c)

	ctx, span := h.tracer.Start(c.Request.Context(), "reject_payment_http")
	defer span.End()
	span.SetAttributes(attribute.Int64("payment_id", paymentID))

	payment, err := h.useCase.RejectPayment(ctx, actor, paymentID, req.Reason)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, payment)
}

// Get é o endpoint GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	actor, _ := auth.ActorFrom(c)

	payment, err := h.useCase.Get(c.Request.Context(), actor, paymentID)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, h.view(payment))
}

// ListByState é o endpoint GET /payments?state=pendiente
func (h *PaymentHandler) ListByState(c *gin.Context) {
	state := State(c.DefaultQuery("state", string(StatePendiente)))
	actor, _ := auth.ActorFrom(c)

	list, err := h.useCase.ListByState(c.Request.Context(), actor, state)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, list)
}

// ListByClient é o endpoint GET /clients/:id/payments
func (h *PaymentHandler) ListByClient(c *gin.Context) {
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

// view assina o comprovante; sem URL o pagamento ainda é devolvido
func (h *PaymentHandler) view(p *Payment) PaymentView {
	v := PaymentView{Payment: p}
	if p.ReceiptRef == "" {
		return v
	}
	url, err := h.files.SignedURL(p.ReceiptRef)
	if err != nil {
		h.logger.Warnf("⚠️ failed to sign receipt of payment %d: %v", p.ID, err)
		return v
	}
	v.ReceiptURL = url
	return v
}
