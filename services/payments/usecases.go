package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
	"github.com/matheusmosca/furniture-marketplace/internal/locking"
	"github.com/matheusmosca/furniture-marketplace/internal/logging"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
	"github.com/matheusmosca/furniture-marketplace/services/clients"
	"github.com/matheusmosca/furniture-marketplace/services/invoices"
	"github.com/matheusmosca/furniture-marketplace/services/messages"
	"github.com/matheusmosca/furniture-marketplace/services/orders"
)

// ProductStore é o acesso ao estoque usado pela confirmação
type ProductStore interface {
	GetProductForUpdate(ctx context.Context, tx database.Tx, category catalog.Category, productID int64) (*catalog.Product, error)
	DecreaseStock(ctx context.Context, tx database.Tx, productID, paymentID int64, quantity int) (*catalog.Product, error)
}

// OrderStore cria o pedido do pagamento na transação da confirmação
type OrderStore interface {
	CreateIfAbsent(ctx context.Context, tx database.Tx, order *orders.Order) (bool, error)
}

// InvoiceStore grava a fatura depois do commit
type InvoiceStore interface {
	CreateIfAbsent(ctx context.Context, invoice *invoices.Invoice) (bool, error)
}

// ProfileStore lê o perfil de envio do cliente
type ProfileStore interface {
	GetProfile(ctx context.Context, clientID int64) (*clients.Profile, error)
}

// MessageStore grava mensagens na conversa do pagamento
type MessageStore interface {
	Append(ctx context.Context, tx database.Tx, msg *messages.Message) error
	UpdateParentMirror(ctx context.Context, tx database.Tx, kind messages.ParentKind, parentID int64, body string) error
}

// Dependencies agrupa os colaboradores do caso de uso
type Dependencies struct {
	Repository Repository
	Products   ProductStore
	Orders     OrderStore
	Invoices   InvoiceStore
	Profiles   ProfileStore
	Messages   MessageStore
	TxBeginner database.TxBeginner
	Locker     locking.Locker
}

// ConfirmResult é o resultado de confirm_payment
type ConfirmResult struct {
	Payment          *Payment          `json:"payment"`
	Order            *orders.Order     `json:"order"`
	OrderCreated     bool              `json:"order_created"`
	Invoice          *invoices.Invoice `json:"invoice,omitempty"`
	DeactivatedItems []int64           `json:"deactivated_product_ids,omitempty"`
}

// PaymentUseCase contém a lógica de negócio de pagamentos
type PaymentUseCase struct {
	deps             Dependencies
	deliveryLeadDays int
	tracer           trace.Tracer
	logger           logrus.FieldLogger

	confirmations   metric.Int64Counter
	confirmFailures metric.Int64Counter
	invoiceFailures metric.Int64Counter
	unitsDeducted   metric.Int64Counter
	confirmDuration metric.Float64Histogram
}

// ConfirmDurationBuckets são os limites, em segundos, do histograma de confirmação
var ConfirmDurationBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// NewPaymentUseCase cria uma nova instância de PaymentUseCase
func NewPaymentUseCase(
	deps Dependencies,
	deliveryLeadDays int,
	tracer trace.Tracer,
	meter metric.Meter,
	logger logrus.FieldLogger,
) *PaymentUseCase {
	if deps.Locker == nil {
		deps.Locker = locking.NoopLocker{}
	}

	uc := &PaymentUseCase{
		deps:             deps,
		deliveryLeadDays: deliveryLeadDays,
		tracer:           tracer,
		logger:           logger,
	}

	var err error
	if uc.confirmations, err = meter.Int64Counter("payment_confirmations_total",
		metric.WithDescription("Payments confirmed"),
		metric.WithUnit("{payment}")); err != nil {
		logger.Warnf("⚠️ failed to create payment_confirmations_total counter: %v", err)
	}
	if uc.confirmFailures, err = meter.Int64Counter("payment_confirmation_failures_total",
		metric.WithDescription("Refused or failed payment confirmations by error kind"),
		metric.WithUnit("{payment}")); err != nil {
		logger.Warnf("⚠️ failed to create payment_confirmation_failures_total counter: %v", err)
	}
	if uc.invoiceFailures, err = meter.Int64Counter("invoice_generation_failures_total",
		metric.WithDescription("Invoices that could not be generated after a confirmation"),
		metric.WithUnit("{invoice}")); err != nil {
		logger.Warnf("⚠️ failed to create invoice_generation_failures_total counter: %v", err)
	}
	if uc.unitsDeducted, err = meter.Int64Counter("inventory_units_deducted_total",
		metric.WithDescription("Stock units deducted by confirmed payments, by category"),
		metric.WithUnit("{unit}")); err != nil {
		logger.Warnf("⚠️ failed to create inventory_units_deducted_total counter: %v", err)
	}
	if uc.confirmDuration, err = meter.Float64Histogram("payment_confirmation_duration_seconds",
		metric.WithDescription("Time to confirm a payment, by outcome"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ConfirmDurationBuckets...)); err != nil {
		logger.Warnf("⚠️ failed to create payment_confirmation_duration_seconds histogram: %v", err)
	}

	return uc
}

func (uc *PaymentUseCase) count(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// Submit registra o checkout do cliente como pagamento pendente
func (uc *PaymentUseCase) Submit(ctx context.Context, actor auth.Actor, req SubmitRequest) (*Payment, error) {
	ctx, span := uc.tracer.Start(ctx, "submit_payment")
	defer span.End()

	payment, err := NewPayment(actor, req)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Repository.Create(ctx, payment); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("payment_id", payment.ID))
	uc.logger.Infof("✅ [SUBMIT PAYMENT] PaymentID=%d | Client=%s | Total=%s", payment.ID, actor, payment.TotalAmount)
	return payment, nil
}

// ConfirmPayment confirma o pagamento, baixa o estoque e cria pedido e fatura
func (uc *PaymentUseCase) ConfirmPayment(ctx context.Context, actor auth.Actor, paymentID int64, notes string) (*ConfirmResult, error) {
	ctx, span := uc.tracer.Start(ctx, "confirm_payment")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("payment_id", paymentID),
		attribute.String("actor", actor.String()),
	)

	start := time.Now()
	result, err := uc.confirm(ctx, actor, paymentID, notes)
	if err != nil {
		kind := apperr.KindOf(err)
		span.SetAttributes(attribute.String("error_kind", string(kind)))
		uc.count(ctx, uc.confirmFailures, attribute.String("kind", string(kind)))
		uc.observe(ctx, start, string(kind))
		return nil, err
	}

	uc.count(ctx, uc.confirmations)
	uc.observe(ctx, start, "confirmed")
	return result, nil
}

func (uc *PaymentUseCase) observe(ctx context.Context, start time.Time, outcome string) {
	if uc.confirmDuration != nil {
		uc.confirmDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

type lockedLine struct {
	line    CartLine
	product *catalog.Product
}

func (uc *PaymentUseCase) confirm(ctx context.Context, actor auth.Actor, paymentID int64, notes string) (*ConfirmResult, error) {
	if !actor.IsCompany() {
		return nil, apperr.New(apperr.KindForbidden, "only companies can confirm payments")
	}

	uc.logger.Infof("➡️ [CONFIRM PAYMENT] PaymentID: %d | Actor: %s", paymentID, actor)

	// 1. Serializa confirmações do mesmo pagamento entre instâncias
	release, err := uc.deps.Locker.Acquire(ctx, locking.PaymentKey(paymentID))
	if errors.Is(err, locking.ErrBusy) {
		return nil, apperr.Wrap(apperr.KindInvalidState, err, "payment %d is being confirmed by another request", paymentID)
	}
	if err != nil {
		return nil, err
	}
	defer release()

	// 2. Inicia a transação
	tx, err := uc.deps.TxBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	// 3. Obtém o pagamento com LOCK PESSIMISTA e verifica idempotência
	payment, err := uc.deps.Repository.GetForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.CheckConfirmable(); err != nil {
		uc.logger.Infof("ℹ️ [IDEMPOTENCY] PaymentID=%d already %s", paymentID, payment.State)
		return nil, err
	}

	lines, err := ParseCart(payment.CartSnapshot)
	if err == nil {
		lines, err = Aggregate(lines)
	}
	if err != nil {
		uc.logger.Errorf("❌ CONFIRM FAILED: malformed cart | PaymentID=%d | Error=%v", paymentID, err)
		return nil, err
	}

	// 4. Validação: bloqueia cada produto e junta todas as faltas antes de mexer no estoque
	locked := make([]lockedLine, 0, len(lines))
	var shortfalls []apperr.Shortfall
	for _, line := range lines {
		product, err := uc.deps.Products.GetProductForUpdate(ctx, tx, line.Category, line.ProductID)
		if err != nil {
			uc.logger.Errorf("❌ CONFIRM FAILED: GetProductForUpdate | PaymentID=%d | %s %d | Error=%v",
				paymentID, line.Category, line.ProductID, err)
			return nil, err
		}
		missing, err := product.CanSupply(line.Quantity)
		if err != nil {
			return nil, err
		}
		if missing > 0 {
			shortfalls = append(shortfalls, apperr.Shortfall{
				Category:  string(line.Category),
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: product.StockCount,
				Missing:   missing,
			})
			continue
		}
		locked = append(locked, lockedLine{line: line, product: product})
	}
	if len(shortfalls) > 0 {
		uc.logger.Infof("❌ CONFIRM FAILED: Insufficient stock | PaymentID=%d | Lines=%d", paymentID, len(shortfalls))
		return nil, apperr.InsufficientStock(shortfalls)
	}

	// 5. Baixa o estoque de todas as linhas; produtos que zeram são desativados
	result := &ConfirmResult{}
	for _, l := range locked {
		updated, err := uc.deps.Products.DecreaseStock(ctx, tx, l.product.ID, payment.ID, l.line.Quantity)
		if err != nil {
			uc.logger.Errorf("❌ [DECREASE] | PaymentID=%d Failed to update %s %d: %v",
				paymentID, l.line.Category, l.product.ID, err)
			return nil, err
		}
		if !updated.IsActive && l.product.IsActive {
			result.DeactivatedItems = append(result.DeactivatedItems, updated.ID)
		}
	}

	// 6. Marca o pagamento como confirmado
	now := time.Now()
	if err := payment.MarkConfirmed(notes, now); err != nil {
		return nil, err
	}
	if err := uc.deps.Repository.MarkConfirmed(ctx, tx, payment); err != nil {
		return nil, err
	}

	// 7. Cria o pedido com os dados de envio do perfil do cliente
	profile := uc.profile(ctx, payment.ClientID)
	order := orders.NewOrder(payment.ID, payment.ClientID, payment.CartSnapshot, payment.TotalAmount,
		orders.ShippingAddress{
			FullName:   profile.FullName,
			Phone:      profile.Phone,
			Address:    profile.Address,
			City:       profile.City,
			Department: profile.Department,
			PostalCode: profile.PostalCode,
		}, now, uc.deliveryLeadDays)
	created, err := uc.deps.Orders.CreateIfAbsent(ctx, tx, order)
	if err != nil {
		uc.logger.Errorf("❌ [CREATE ORDER] | PaymentID=%d Failed: %v", paymentID, err)
		return nil, err
	}

	// 8. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("erro ao comitar confirmação: %w", err)
	}

	if uc.unitsDeducted != nil {
		for _, l := range locked {
			uc.unitsDeducted.Add(ctx, int64(l.line.Quantity),
				metric.WithAttributes(attribute.String("category", string(l.line.Category))))
		}
	}

	result.Payment = payment
	result.Order = order
	result.OrderCreated = created
	uc.logger.Infof("✅ [CONFIRM PAYMENT] Success: PaymentID=%d | OrderID=%d | OrderCreated=%t", paymentID, order.ID, created)

	// 9. Fatura: falhas são registradas, nunca desfazem a confirmação
	result.Invoice = uc.issueInvoice(ctx, payment, profile, locked, now)
	return result, nil
}

// profile devolve o perfil do cliente, ou um perfil vazio quando não disponível
func (uc *PaymentUseCase) profile(ctx context.Context, clientID int64) *clients.Profile {
	profile, err := uc.deps.Profiles.GetProfile(ctx, clientID)
	if err != nil {
		uc.logger.Warnf("⚠️ [CONFIRM PAYMENT] profile of client %d unavailable: %v", clientID, err)
		return &clients.Profile{ID: clientID}
	}
	return profile
}

func (uc *PaymentUseCase) issueInvoice(ctx context.Context, payment *Payment, profile *clients.Profile, locked []lockedLine, confirmedAt time.Time) *invoices.Invoice {
	items := make([]invoices.Line, 0, len(locked))
	for _, l := range locked {
		items = append(items, invoices.NewLine(string(l.line.Category), l.product.ID, l.product.Name, l.product.Price, l.line.Quantity))
	}

	invoice := invoices.NewInvoice(invoices.Source{
		PaymentID:    payment.ID,
		ClientID:     payment.ClientID,
		CartSnapshot: payment.CartSnapshot,
		Amount:       payment.TotalAmount,
		ConfirmedAt:  confirmedAt,
		FullName:     payment.FullName,
		Email:        payment.Email,
		Phone:        payment.Phone,
		Address:      payment.Address,
		Profile:      profile,
		Items:        items,
	})

	created, err := uc.deps.Invoices.CreateIfAbsent(ctx, invoice)
	if err != nil {
		logging.LogError(uc.logger, "payments", "ConfirmPayment", "invoice generation",
			map[string]any{"payment_id": payment.ID, "invoice_number": invoice.Number}, err)
		uc.count(ctx, uc.invoiceFailures)
		return nil
	}
	if !created {
		uc.logger.Infof("ℹ️ [IDEMPOTENCY] Invoice already exists for PaymentID=%d", payment.ID)
		return nil
	}

	uc.logger.Infof("✅ [INVOICE] %s generated for PaymentID=%d", invoice.Number, payment.ID)
	return invoice
}

// RejectPayment rejeita um pagamento pendente e avisa o cliente pela conversa
func (uc *PaymentUseCase) RejectPayment(ctx context.Context, actor auth.Actor, paymentID int64, reason string) (*Payment, error) {
	ctx, span := uc.tracer.Start(ctx, "reject_payment")
	defer span.End()
	span.SetAttributes(attribute.Int64("payment_id", paymentID))

	if !actor.IsCompany() {
		return nil, apperr.New(apperr.KindForbidden, "only companies can reject payments")
	}

	uc.logger.Infof("➡️ [REJECT PAYMENT] PaymentID: %d | Actor: %s", paymentID, actor)

	// 1. Inicia a transação
	tx, err := uc.deps.TxBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	// 2. Obtém o pagamento com LOCK PESSIMISTA
	payment, err := uc.deps.Repository.GetForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}

	// 3. Regra de negócio: só pendentes, com motivo
	body, err := payment.MarkRejected(reason)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Repository.MarkRejected(ctx, tx, payment); err != nil {
		return nil, err
	}

	// 4. Registra a rejeição na conversa do pagamento
	msg, err := messages.NewMessage(messages.Draft{
		ParentKind: messages.ParentPayment,
		ParentID:   payment.ID,
		Sender:     actor,
		Body:       body,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Messages.Append(ctx, tx, msg); err != nil {
		return nil, err
	}
	if err := uc.deps.Messages.UpdateParentMirror(ctx, tx, messages.ParentPayment, payment.ID, body); err != nil {
		return nil, err
	}
	payment.LastMessage = body

	// 5. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("erro ao comitar rejeição: %w", err)
	}

	uc.logger.Infof("✅ [REJECT PAYMENT] Success: PaymentID=%d", paymentID)
	return payment, nil
}

// Get busca um pagamento visível ao ator
func (uc *PaymentUseCase) Get(ctx context.Context, actor auth.Actor, paymentID int64) (*Payment, error) {
	payment, err := uc.deps.Repository.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.CanView(actor) {
		return nil, apperr.New(apperr.KindForbidden, "%s cannot view payment %d", actor, paymentID)
	}
	return payment, nil
}

// ListByClient lista os pagamentos de um cliente; clientes só veem os próprios
func (uc *PaymentUseCase) ListByClient(ctx context.Context, actor auth.Actor, clientID int64) ([]Payment, error) {
	if actor.IsClient() && actor.ID != clientID {
		return nil, apperr.New(apperr.KindForbidden, "%s cannot list payments of client %d", actor, clientID)
	}
	return uc.deps.Repository.ListByClient(ctx, clientID)
}

// ListByState é a fila de verificação das empresas
func (uc *PaymentUseCase) ListByState(ctx context.Context, actor auth.Actor, state State) ([]Payment, error) {
	if !actor.IsCompany() {
		return nil, apperr.New(apperr.KindForbidden, "only companies can list payments by state")
	}
	switch state {
	case StatePendiente, StateConfirmado, StateRechazado:
	default:
		return nil, apperr.New(apperr.KindValidation, "invalid payment state %q", state)
	}
	return uc.deps.Repository.ListByState(ctx, state)
}
