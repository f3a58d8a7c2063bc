package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// Repository define a interface para operações de banco de dados de pedidos
type Repository interface {
	CreateIfAbsent(ctx context.Context, tx database.Tx, order *Order) (bool, error)
	Get(ctx context.Context, orderID int64) (*Order, error)
	GetForUpdate(ctx context.Context, tx database.Tx, orderID int64) (*Order, error)
	GetByPaymentID(ctx context.Context, paymentID int64) (*Order, error)
	UpdateShipment(ctx context.Context, tx database.Tx, order *Order) error
	ListByClient(ctx context.Context, clientID int64) ([]Order, error)
}

// PostgresOrderRepository implementa Repository usando PostgreSQL
type PostgresOrderRepository struct {
	db database.DB
}

// NewOrderRepository cria uma nova instância de PostgresOrderRepository
func NewOrderRepository(db database.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

const orderColumns = `id, payment_id, client_id, cart_snapshot, total_amount, state, tracking_number, carrier,
	estimated_delivery_date, actual_delivery_date, full_name, phone, address, city, department, postal_code,
	created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.PaymentID,
		&o.ClientID,
		&o.CartSnapshot,
		&o.TotalAmount,
		&o.State,
		&o.TrackingNumber,
		&o.Carrier,
		&o.EstimatedDeliveryDate,
		&o.ActualDeliveryDate,
		&o.FullName,
		&o.Phone,
		&o.Address,
		&o.City,
		&o.Department,
		&o.PostalCode,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func wrapGet(what string, id int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "order for %s %d not found", what, id)
	}
	return fmt.Errorf("failed to get order for %s %d: %w", what, id, err)
}

// CreateIfAbsent cria o pedido do pagamento; a UNIQUE em payment_id torna a
// segunda tentativa um no-op. Retorna false quando o pedido já existia.
func (r *PostgresOrderRepository) CreateIfAbsent(ctx context.Context, tx database.Tx, order *Order) (bool, error) {
	pgTx := database.PgxTx(tx)

	err := pgTx.QueryRow(ctx, `
		INSERT INTO orders (payment_id, client_id, cart_snapshot, total_amount, state, estimated_delivery_date,
			full_name, phone, address, city, department, postal_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id
	`, order.PaymentID, order.ClientID, order.CartSnapshot, order.TotalAmount, order.State,
		order.EstimatedDeliveryDate, order.FullName, order.Phone, order.Address, order.City,
		order.Department, order.PostalCode, order.CreatedAt, order.UpdatedAt).Scan(&order.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		if err := pgTx.QueryRow(ctx, `SELECT id FROM orders WHERE payment_id = $1`, order.PaymentID).Scan(&order.ID); err != nil {
			return false, fmt.Errorf("failed to load existing order: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}
	return true, nil
}

// Get busca um pedido pelo id
func (r *PostgresOrderRepository) Get(ctx context.Context, orderID int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return nil, wrapGet("id", orderID, err)
	}
	return o, nil
}

// GetForUpdate obtém o pedido com lock pessimista (FOR UPDATE)
func (r *PostgresOrderRepository) GetForUpdate(ctx context.Context, tx database.Tx, orderID int64) (*Order, error) {
	pgTx := database.PgxTx(tx)

	o, err := scanOrder(pgTx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if err != nil {
		return nil, wrapGet("id", orderID, err)
	}
	return o, nil
}

// GetByPaymentID busca o pedido de um pagamento
func (r *PostgresOrderRepository) GetByPaymentID(ctx context.Context, paymentID int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_id = $1`, paymentID))
	if err != nil {
		return nil, wrapGet("payment", paymentID, err)
	}
	return o, nil
}

// UpdateShipment grava estado, rastreio e data de entrega
func (r *PostgresOrderRepository) UpdateShipment(ctx context.Context, tx database.Tx, order *Order) error {
	pgTx := database.PgxTx(tx)

	result, err := pgTx.Exec(ctx, `
		UPDATE orders
		SET state = $1,
		    tracking_number = $2,
		    carrier = $3,
		    actual_delivery_date = $4,
		    updated_at = $5
		WHERE id = $6
	`, order.State, order.TrackingNumber, order.Carrier, order.ActualDeliveryDate, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "order %d not found", order.ID)
	}
	return nil
}

// ListByClient lista os pedidos de um cliente, mais recentes primeiro
func (r *PostgresOrderRepository) ListByClient(ctx context.Context, clientID int64) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	result := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}
