package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
)

// State representa os estados de envio de um pedido
type State string

const (
	StateProcesando State = "procesando"
	StateEmpacado   State = "empacado"
	StateEnviado    State = "enviado"
	StateEnTransito State = "en_transito"
	StateEntregado  State = "entregado"
	StateCancelado  State = "cancelado"
)

// States lista os seis estados na ordem do fluxo de envio
var States = []State{
	StateProcesando,
	StateEmpacado,
	StateEnviado,
	StateEnTransito,
	StateEntregado,
	StateCancelado,
}

// ParseState aceita apenas um dos seis estados enumerados
func ParseState(raw string) (State, bool) {
	s := State(strings.TrimSpace(raw))
	for _, known := range States {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// Terminal informa se nenhum outro estado segue este no fluxo estrito
func (s State) Terminal() bool {
	return s == StateEntregado || s == StateCancelado
}

// ShippingAddress são os dados de entrega copiados do perfil do cliente
type ShippingAddress struct {
	FullName   string `json:"full_name" db:"full_name"`
	Phone      string `json:"phone" db:"phone"`
	Address    string `json:"address" db:"address"`
	City       string `json:"city" db:"city"`
	Department string `json:"department" db:"department"`
	PostalCode string `json:"postal_code" db:"postal_code"`
}

// Order representa o pedido criado a partir de um pagamento confirmado
type Order struct {
	ID                    int64           `json:"id" db:"id"`
	PaymentID             int64           `json:"payment_id" db:"payment_id"`
	ClientID              int64           `json:"client_id" db:"client_id"`
	CartSnapshot          string          `json:"cart_snapshot" db:"cart_snapshot"`
	TotalAmount           decimal.Decimal `json:"total_amount" db:"total_amount"`
	State                 State           `json:"state" db:"state"`
	TrackingNumber        *string         `json:"tracking_number" db:"tracking_number"`
	Carrier               *string         `json:"carrier" db:"carrier"`
	EstimatedDeliveryDate time.Time       `json:"estimated_delivery_date" db:"estimated_delivery_date"`
	ActualDeliveryDate    *time.Time      `json:"actual_delivery_date" db:"actual_delivery_date"`
	ShippingAddress
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewOrder cria o pedido em procesando com entrega estimada em leadDays dias
func NewOrder(paymentID, clientID int64, cartSnapshot string, total decimal.Decimal, shipping ShippingAddress, now time.Time, leadDays int) *Order {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return &Order{
		PaymentID:             paymentID,
		ClientID:              clientID,
		CartSnapshot:          cartSnapshot,
		TotalAmount:           total,
		State:                 StateProcesando,
		EstimatedDeliveryDate: today.AddDate(0, 0, leadDays),
		ShippingAddress:       shipping,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// TransitionPolicy decide se um pedido pode ir de from para to
type TransitionPolicy interface {
	Allow(from, to State) error
}

// PermissivePolicy aceita qualquer estado válido, inclusive retrocessos
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(from, to State) error { return nil }

// ForwardOnlyPolicy só avança no fluxo procesando → empacado → enviado → en_transito → entregado.
// cancelado é alcançável de qualquer estado exceto entregado; repetir o estado atual é sempre permitido.
type ForwardOnlyPolicy struct{}

func (ForwardOnlyPolicy) Allow(from, to State) error {
	if from == to {
		return nil
	}
	if from.Terminal() {
		return apperr.New(apperr.KindInvalidState, "order in state %s cannot move to %s", from, to)
	}
	if to == StateCancelado {
		return nil
	}
	if rank(to) <= rank(from) {
		return apperr.New(apperr.KindInvalidState, "order cannot move back from %s to %s", from, to)
	}
	return nil
}

func rank(s State) int {
	for i, known := range States {
		if s == known {
			return i
		}
	}
	return -1
}

// PolicyFor devolve a política configurada
func PolicyFor(strict bool) TransitionPolicy {
	if strict {
		return ForwardOnlyPolicy{}
	}
	return PermissivePolicy{}
}

// ShipmentUpdate são os dados de update_order_state
type ShipmentUpdate struct {
	State          string  `json:"state"`
	TrackingNumber *string `json:"tracking_number"`
	Carrier        *string `json:"carrier"`
}

// Apply aplica a atualização de envio. entregado grava a data real só na primeira vez.
func (o *Order) Apply(update ShipmentUpdate, policy TransitionPolicy, now time.Time) error {
	next, ok := ParseState(update.State)
	if !ok {
		return apperr.New(apperr.KindInvalidState, "invalid order state %q", update.State)
	}
	if err := policy.Allow(o.State, next); err != nil {
		return err
	}

	o.State = next
	if v := trimmed(update.TrackingNumber); v != nil {
		o.TrackingNumber = v
	}
	if v := trimmed(update.Carrier); v != nil {
		o.Carrier = v
	}
	if next == StateEntregado && o.ActualDeliveryDate == nil {
		delivered := now
		o.ActualDeliveryDate = &delivered
	}
	o.UpdatedAt = now
	return nil
}

// trimmed ignora valores vazios, que não apagam o que já foi gravado
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
