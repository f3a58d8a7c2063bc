package invoices

import (
	"context"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
)

// InvoiceUseCase expõe a leitura das faturas; a emissão acontece na confirmação do pagamento
type InvoiceUseCase struct {
	repository Repository
}

// NewInvoiceUseCase cria uma nova instância de InvoiceUseCase
func NewInvoiceUseCase(repository Repository) *InvoiceUseCase {
	return &InvoiceUseCase{repository: repository}
}

// GetByPayment busca a fatura; clientes só veem as próprias
func (uc *InvoiceUseCase) GetByPayment(ctx context.Context, actor auth.Actor, paymentID int64) (*Invoice, error) {
	invoice, err := uc.repository.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if actor.IsClient() && actor.ID != invoice.ClientID {
		return nil, apperr.New(apperr.KindForbidden, "%s cannot view invoice of payment %d", actor, paymentID)
	}
	return invoice, nil
}
