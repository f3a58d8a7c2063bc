package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// Repository define a interface para operações de banco de dados de faturas
type Repository interface {
	CreateIfAbsent(ctx context.Context, invoice *Invoice) (bool, error)
	GetByPaymentID(ctx context.Context, paymentID int64) (*Invoice, error)
}

// PostgresInvoiceRepository implementa Repository usando PostgreSQL
type PostgresInvoiceRepository struct {
	db database.DB
}

// NewInvoiceRepository cria uma nova instância de PostgresInvoiceRepository
func NewInvoiceRepository(db database.DB) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

// CreateIfAbsent grava a fatura fora da transação da confirmação.
// Retorna false, com o id da existente, quando o pagamento já tinha fatura.
func (r *PostgresInvoiceRepository) CreateIfAbsent(ctx context.Context, invoice *Invoice) (bool, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (payment_id, invoice_number, client_id, billed_name, billed_email, billed_phone,
			billed_address, billed_city, billed_department, cart_snapshot, items, subtotal, taxes, total, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id
	`, invoice.PaymentID, invoice.Number, invoice.ClientID, invoice.BilledName, invoice.BilledEmail,
		invoice.BilledPhone, invoice.BilledAddress, invoice.BilledCity, invoice.BilledDepartment,
		invoice.CartSnapshot, invoice.Items, invoice.Subtotal, invoice.Taxes, invoice.Total,
		invoice.IssuedAt).Scan(&invoice.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := r.db.QueryRow(ctx, `SELECT id FROM invoices WHERE payment_id = $1`, invoice.PaymentID).Scan(&invoice.ID); err != nil {
			return false, fmt.Errorf("failed to load existing invoice: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create invoice: %w", err)
	}
	return true, nil
}

// GetByPaymentID busca a fatura de um pagamento
func (r *PostgresInvoiceRepository) GetByPaymentID(ctx context.Context, paymentID int64) (*Invoice, error) {
	var inv Invoice
	err := r.db.QueryRow(ctx, `
		SELECT id, payment_id, invoice_number, client_id, billed_name, billed_email, billed_phone,
			billed_address, billed_city, billed_department, cart_snapshot, items, subtotal, taxes, total, issued_at
		FROM invoices
		WHERE payment_id = $1
	`, paymentID).Scan(
		&inv.ID,
		&inv.PaymentID,
		&inv.Number,
		&inv.ClientID,
		&inv.BilledName,
		&inv.BilledEmail,
		&inv.BilledPhone,
		&inv.BilledAddress,
		&inv.BilledCity,
		&inv.BilledDepartment,
		&inv.CartSnapshot,
		&inv.Items,
		&inv.Subtotal,
		&inv.Taxes,
		&inv.Total,
		&inv.IssuedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "invoice for payment %d not found", paymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}
