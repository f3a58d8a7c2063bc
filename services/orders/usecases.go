package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// OrderUseCase contém a lógica de rastreio de envio dos pedidos
type OrderUseCase struct {
	repository Repository
	txBeginner database.TxBeginner
	policy     TransitionPolicy
	tracer     trace.Tracer
	logger     logrus.FieldLogger
}

// NewOrderUseCase cria uma nova instância de OrderUseCase
func NewOrderUseCase(
	repository Repository,
	txBeginner database.TxBeginner,
	policy TransitionPolicy,
	tracer trace.Tracer,
	logger logrus.FieldLogger,
) *OrderUseCase {
	return &OrderUseCase{
		repository: repository,
		txBeginner: txBeginner,
		policy:     policy,
		tracer:     tracer,
		logger:     logger,
	}
}

// UpdateOrderState aplica a atualização de envio feita pela empresa
func (uc *OrderUseCase) UpdateOrderState(ctx context.Context, actor auth.Actor, orderID int64, update ShipmentUpdate) (*Order, error) {
	ctx, span := uc.tracer.Start(ctx, "update_order_state")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("new_state", update.State),
	)

	if !actor.IsCompany() {
		return nil, apperr.New(apperr.KindForbidden, "only companies can update orders")
	}

	uc.logger.Infof("➡️ [UPDATE ORDER] OrderID: %d | NewState: %s", orderID, update.State)

	// 1. Inicia a transação
	tx, err := uc.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	// 2. Obtém o pedido com LOCK PESSIMISTA (SELECT FOR UPDATE)
	order, err := uc.repository.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	previous := order.State

	// 3. Aplica a transição conforme a política configurada
	if err := order.Apply(update, uc.policy, time.Now()); err != nil {
		uc.logger.Infof("ℹ️ [UPDATE ORDER] refused | OrderID=%d | %v", orderID, err)
		return nil, err
	}

	if err := uc.repository.UpdateShipment(ctx, tx, order); err != nil {
		uc.logger.Errorf("❌ [UPDATE ORDER] | OrderID=%d Failed to update: %v", orderID, err)
		return nil, err
	}

	// 4. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("erro ao comitar pedido: %w", err)
	}

	uc.logger.Infof("✅ [UPDATE ORDER] Success: OrderID=%d | %s -> %s", orderID, previous, order.State)
	return order, nil
}

func authorizeRead(actor auth.Actor, order *Order) error {
	if actor.IsCompany() || (actor.IsClient() && actor.ID == order.ClientID) {
		return nil
	}
	return apperr.New(apperr.KindForbidden, "%s cannot view order %d", actor, order.ID)
}

// Get busca um pedido visível ao ator
func (uc *OrderUseCase) Get(ctx context.Context, actor auth.Actor, orderID int64) (*Order, error) {
	order, err := uc.repository.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByPayment busca o pedido criado para um pagamento
func (uc *OrderUseCase) GetByPayment(ctx context.Context, actor auth.Actor, paymentID int64) (*Order, error) {
	order, err := uc.repository.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByClient lista os pedidos de um cliente; clientes só veem os próprios
func (uc *OrderUseCase) ListByClient(ctx context.Context, actor auth.Actor, clientID int64) ([]Order, error) {
	if actor.IsClient() && actor.ID != clientID {
		return nil, apperr.New(apperr.KindForbidden, "%s cannot list orders of client %d", actor, clientID)
	}
	return uc.repository.ListByClient(ctx, clientID)
}
