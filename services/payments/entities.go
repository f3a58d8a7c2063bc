package payments

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
)

// State representa os estados de um pagamento: pendiente → {confirmado | rechazado}
type State string

const (
	StatePendiente  State = "pendiente"
	StateConfirmado State = "confirmado"
	StateRechazado  State = "rechazado"
)

// Payment representa o checkout do cliente aguardando verificação manual do comprovante
type Payment struct {
	ID           int64           `json:"id" db:"id"`
	ClientID     int64           `json:"client_id" db:"client_id"`
	CartSnapshot string          `json:"cart_snapshot" db:"cart_snapshot"`
	TotalAmount  decimal.Decimal `json:"total_amount" db:"total_amount"`
	State        State           `json:"state" db:"state"`
	ReceiptRef   string          `json:"receipt_ref" db:"receipt_ref"`
	Notes        string          `json:"notes" db:"notes"`
	LastMessage  string          `json:"last_message" db:"last_message"`
	FullName     string          `json:"full_name" db:"full_name"`
	Email        string          `json:"email" db:"email"`
	Phone        string          `json:"phone" db:"phone"`
	Address      string          `json:"address" db:"address"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	ConfirmedAt  *time.Time      `json:"confirmed_at" db:"confirmed_at"`
}

// SubmitRequest é o corpo do checkout
type SubmitRequest struct {
	CartSnapshot string          `json:"cart_snapshot"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ReceiptRef   string          `json:"receipt_ref"`
	FullName     string          `json:"full_name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
}

// NewPayment valida o checkout e grava o carrinho agregado no formato canônico
func NewPayment(actor auth.Actor, req SubmitRequest) (*Payment, error) {
	if !actor.IsClient() {
		return nil, apperr.New(apperr.KindForbidden, "only clients can submit payments")
	}
	lines, err := ParseCart(req.CartSnapshot)
	if err != nil {
		return nil, err
	}
	lines, err = Aggregate(lines)
	if err != nil {
		return nil, err
	}
	if !req.TotalAmount.IsPositive() {
		return nil, apperr.New(apperr.KindValidation, "total amount must be positive")
	}
	snapshot, err := EncodeCart(lines)
	if err != nil {
		return nil, err
	}

	return &Payment{
		ClientID:     actor.ID,
		CartSnapshot: snapshot,
		TotalAmount:  req.TotalAmount,
		State:        StatePendiente,
		ReceiptRef:   strings.TrimSpace(req.ReceiptRef),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		CreatedAt:    time.Now(),
	}, nil
}

// CheckConfirmable aplica a guarda de idempotência da confirmação
func (p *Payment) CheckConfirmable() error {
	switch p.State {
	case StatePendiente:
		return nil
	case StateConfirmado:
		return apperr.New(apperr.KindAlreadyConfirmed, "payment %d was already confirmed", p.ID)
	default:
		return apperr.New(apperr.KindAlreadyDecided, "payment %d was already %s", p.ID, p.State)
	}
}

// MarkConfirmed registra a confirmação; notas vazias mantêm as existentes
func (p *Payment) MarkConfirmed(notes string, now time.Time) error {
	if err := p.CheckConfirmable(); err != nil {
		return err
	}
	p.State = StateConfirmado
	p.ConfirmedAt = &now
	if n := strings.TrimSpace(notes); n != "" {
		p.Notes = n
	}
	return nil
}

// MarkRejected rejeita um pagamento pendente e devolve a mensagem da conversa
func (p *Payment) MarkRejected(reason string) (string, error) {
	if p.State != StatePendiente {
		return "", apperr.New(apperr.KindAlreadyDecided, "payment %d was already %s", p.ID, p.State)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperr.New(apperr.KindValidation, "rejection reason is required")
	}
	p.State = StateRechazado
	p.Notes = reason
	return "Pago rechazado. Motivo: " + reason, nil
}

// CanView informa se o ator pode ler o pagamento; empresas veem todos
func (p *Payment) CanView(actor auth.Actor) bool {
	return actor.IsCompany() || (actor.IsClient() && actor.ID == p.ClientID)
}
