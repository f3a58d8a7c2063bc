package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// Repository define a interface para operações de banco de dados de pagamentos
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, paymentID int64) (*Payment, error)
	GetForUpdate(ctx context.Context, tx database.Tx, paymentID int64) (*Payment, error)
	MarkConfirmed(ctx context.Context, tx database.Tx, payment *Payment) error
	MarkRejected(ctx context.Context, tx database.Tx, payment *Payment) error
	ListByClient(ctx context.Context, clientID int64) ([]Payment, error)
	ListByState(ctx context.Context, state State) ([]Payment, error)
}

// PostgresPaymentRepository implementa Repository usando PostgreSQL
type PostgresPaymentRepository struct {
	db database.DB
}

// NewPaymentRepository cria uma nova instância de PostgresPaymentRepository
func NewPaymentRepository(db database.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

const paymentColumns = `id, client_id, cart_snapshot, total_amount, state, receipt_ref, notes, last_message,
	full_name, email, phone, address, created_at, confirmed_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.CartSnapshot,
		&p.TotalAmount,
		&p.State,
		&p.ReceiptRef,
		&p.Notes,
		&p.LastMessage,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.Address,
		&p.CreatedAt,
		&p.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func wrapGet(paymentID int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "payment %d not found", paymentID)
	}
	return fmt.Errorf("failed to get payment %d: %w", paymentID, err)
}

// Create insere um pagamento pendente
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *Payment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (client_id, cart_snapshot, total_amount, state, receipt_ref, full_name, email, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, payment.ClientID, payment.CartSnapshot, payment.TotalAmount, payment.State, payment.ReceiptRef,
		payment.FullName, payment.Email, payment.Phone, payment.Address, payment.CreatedAt).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// Get busca um pagamento pelo id
func (r *PostgresPaymentRepository) Get(ctx context.Context, paymentID int64) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if err != nil {
		return nil, wrapGet(paymentID, err)
	}
	return p, nil
}

// GetForUpdate obtém o pagamento com lock pessimista (FOR UPDATE)
func (r *PostgresPaymentRepository) GetForUpdate(ctx context.Context, tx database.Tx, paymentID int64) (*Payment, error) {
	pgTx := database.PgxTx(tx)

	p, err := scanPayment(pgTx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID))
	if err != nil {
		return nil, wrapGet(paymentID, err)
	}
	return p, nil
}

// MarkConfirmed faz o compare-and-set pendiente → confirmado
func (r *PostgresPaymentRepository) MarkConfirmed(ctx context.Context, tx database.Tx, payment *Payment) error {
	pgTx := database.PgxTx(tx)

	confirmedAt := time.Now()
	if payment.ConfirmedAt != nil {
		confirmedAt = *payment.ConfirmedAt
	}

	result, err := pgTx.Exec(ctx, `
		UPDATE payments
		SET state = 'confirmado',
		    confirmed_at = $1,
		    notes = $2
		WHERE id = $3 AND state = 'pendiente'
	`, confirmedAt, payment.Notes, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.KindAlreadyDecided, "payment %d is no longer pending", payment.ID)
	}
	return nil
}

// MarkRejected faz o compare-and-set pendiente → rechazado
func (r *PostgresPaymentRepository) MarkRejected(ctx context.Context, tx database.Tx, payment *Payment) error {
	pgTx := database.PgxTx(tx)

	result, err := pgTx.Exec(ctx, `
		UPDATE payments
		SET state = 'rechazado',
		    notes = $1
		WHERE id = $2 AND state = 'pendiente'
	`, payment.Notes, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to reject payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.KindAlreadyDecided, "payment %d is no longer pending", payment.ID)
	}
	return nil
}

func (r *PostgresPaymentRepository) list(ctx context.Context, query string, arg any) ([]Payment, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	result := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// ListByClient lista os pagamentos de um cliente, mais recentes primeiro
func (r *PostgresPaymentRepository) ListByClient(ctx context.Context, clientID int64) ([]Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
}

// ListByState lista os pagamentos num estado, mais antigos primeiro
func (r *PostgresPaymentRepository) ListByState(ctx context.Context, state State) ([]Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE state = $1 ORDER BY created_at`, state)
}
