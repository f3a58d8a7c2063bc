package invoices

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
)

// Service é o que os handlers precisam do caso de uso
type Service interface {
	GetByPayment(ctx context.Context, actor auth.Actor, paymentID int64) (*Invoice, error)
}

// InvoiceHandler contém os handlers HTTP de faturas
type InvoiceHandler struct {
	useCase Service
}

// NewInvoiceHandler cria uma nova instância de InvoiceHandler
func NewInvoiceHandler(useCase Service) *InvoiceHandler {
	return &InvoiceHandler{useCase: useCase}
}

// GetByPayment é o endpoint GET /payments/:id/invoice
func (h *InvoiceHandler) GetByPayment(c *gin.Context) {
	paymentID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	actor, _ := auth.ActorFrom(c)

	invoice, err := h.useCase.GetByPayment(c.Request.Context(), actor, paymentID)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, invoice)
}
