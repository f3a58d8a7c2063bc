package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// Repository define a interface para operações de banco de dados do catálogo
type Repository interface {
	GetProduct(ctx context.Context, category Category, productID int64) (*Product, error)
	GetProductForUpdate(ctx context.Context, tx database.Tx, category Category, productID int64) (*Product, error)
	DecreaseStock(ctx context.Context, tx database.Tx, productID, paymentID int64, quantity int) (*Product, error)
	CreateProduct(ctx context.Context, tx database.Tx, product *Product) error
	ToggleActive(ctx context.Context, category Category, productID int64) (*Product, error)
	ListByCategory(ctx context.Context, category Category, onlyActive bool) ([]Product, error)
}

// PostgresCatalogRepository implementa Repository usando PostgreSQL
type PostgresCatalogRepository struct {
	db database.DB
}

// NewCatalogRepository cria uma nova instância de PostgresCatalogRepository
func NewCatalogRepository(db database.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

const productColumns = `id, category, name, description, price, stock_count, is_active, image_ref, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Category,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.StockCount,
		&p.IsActive,
		&p.ImageRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func notFound(category Category, productID int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "product %s %d not found", category, productID)
	}
	return fmt.Errorf("failed to get product %s %d: %w", category, productID, err)
}

// GetProduct busca um produto pela categoria e id
func (r *PostgresCatalogRepository) GetProduct(ctx context.Context, category Category, productID int64) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM catalog_products
		WHERE category = $1 AND id = $2
	`, category, productID)

	p, err := scanProduct(row)
	if err != nil {
		return nil, notFound(category, productID, err)
	}
	return p, nil
}

// GetProductForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresCatalogRepository) GetProductForUpdate(ctx context.Context, tx database.Tx, category Category, productID int64) (*Product, error) {
	pgTx := database.PgxTx(tx)

	row := pgTx.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM catalog_products
		WHERE category = $1 AND id = $2
		FOR UPDATE
	`, category, productID)

	p, err := scanProduct(row)
	if err != nil {
		return nil, notFound(category, productID, err)
	}
	return p, nil
}

// DecreaseStock diminui o estoque e registra o movimento.
// O WHERE impede estoque negativo mesmo sem o lock da validação.
func (r *PostgresCatalogRepository) DecreaseStock(ctx context.Context, tx database.Tx, productID, paymentID int64, quantity int) (*Product, error) {
	if quantity <= 0 {
		return nil, apperr.New(apperr.KindValidation, "quantity must be positive, got %d", quantity)
	}
	pgTx := database.PgxTx(tx)

	// 1. Atualiza o estoque e desativa o produto esgotado
	row := pgTx.QueryRow(ctx, `
		UPDATE catalog_products
		SET stock_count = stock_count - $1,
		    is_active = CASE WHEN stock_count - $1 <= 0 THEN FALSE ELSE is_active END,
		    updated_at = NOW()
		WHERE id = $2 AND stock_count >= $1
		RETURNING `+productColumns, quantity, productID)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.InsufficientStock([]apperr.Shortfall{{ProductID: productID, Requested: quantity}})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decrease stock: %w", err)
	}

	// 2. Insere o registro de movimentação
	movementID := uuid.New().String()
	_, err = pgTx.Exec(ctx, `
		INSERT INTO inventory_movements (id, product_id, payment_id, change_quantity, movement_type)
		VALUES ($1, $2, $3, $4, $5)
	`, movementID, productID, paymentID, quantity, MovementTypeDecreased)
	if err != nil {
		return nil, fmt.Errorf("failed to insert movement record: %w", err)
	}

	return p, nil
}

// CreateProduct insere o produto e preenche o id gerado
func (r *PostgresCatalogRepository) CreateProduct(ctx context.Context, tx database.Tx, product *Product) error {
	pgTx := database.PgxTx(tx)

	err := pgTx.QueryRow(ctx, `
		INSERT INTO catalog_products (category, name, description, price, stock_count, is_active, image_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, product.Category, product.Name, product.Description, product.Price, product.StockCount,
		product.IsActive, product.ImageRef, product.CreatedAt, product.UpdatedAt).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// ToggleActive inverte o flag is_active, independente do estoque
func (r *PostgresCatalogRepository) ToggleActive(ctx context.Context, category Category, productID int64) (*Product, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE catalog_products
		SET is_active = NOT is_active,
		    updated_at = NOW()
		WHERE category = $1 AND id = $2
		RETURNING `+productColumns, category, productID)

	p, err := scanProduct(row)
	if err != nil {
		return nil, notFound(category, productID, err)
	}
	return p, nil
}

// ListByCategory lista os produtos de uma categoria
func (r *PostgresCatalogRepository) ListByCategory(ctx context.Context, category Category, onlyActive bool) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM catalog_products
		WHERE category = $1 AND (NOT $2 OR is_active)
		ORDER BY id
	`, category, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
