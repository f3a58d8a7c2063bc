package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
)

// Category é a variante fechada de produto do catálogo
type Category string

const (
	CategoryMesas       Category = "mesas"
	CategorySillas      Category = "sillas"
	CategoryArmarios    Category = "armarios"
	CategoryCajoneras   Category = "cajoneras"
	CategoryEscritorios Category = "escritorios"
	CategoryUtensilios  Category = "utensilios"
)

// Categories lista as seis categorias na ordem de exibição
var Categories = []Category{
	CategoryMesas,
	CategorySillas,
	CategoryArmarios,
	CategoryCajoneras,
	CategoryEscritorios,
	CategoryUtensilios,
}

var categoryAliases = map[string]Category{
	"mesas":       CategoryMesas,
	"mesa":        CategoryMesas,
	"sillas":      CategorySillas,
	"silla":       CategorySillas,
	"armarios":    CategoryArmarios,
	"armario":     CategoryArmarios,
	"cajoneras":   CategoryCajoneras,
	"cajonera":    CategoryCajoneras,
	"escritorios": CategoryEscritorios,
	"escritorio":  CategoryEscritorios,
	"utensilios":  CategoryUtensilios,
	"utensilio":   CategoryUtensilios,
}

// ParseCategory normaliza singular/plural e maiúsculas para a tag canônica
func ParseCategory(raw string) (Category, bool) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(raw))]
	return c, ok
}

func (c Category) Valid() bool {
	canonical, ok := categoryAliases[string(c)]
	return ok && canonical == c
}

// Product representa um produto do catálogo, de qualquer categoria
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Category    Category        `json:"category" db:"category"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	StockCount  int             `json:"stock_count" db:"stock_count"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	ImageRef    string          `json:"image_ref" db:"image_ref"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product ativa
func NewProduct(category Category, name, description string, price decimal.Decimal, stock int, imageRef string) (*Product, error) {
	if !category.Valid() {
		return nil, apperr.New(apperr.KindValidation, "invalid category %q", category)
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperr.New(apperr.KindValidation, "product name is required")
	}
	if price.IsNegative() {
		return nil, apperr.New(apperr.KindValidation, "price must not be negative")
	}
	if stock < 0 {
		return nil, apperr.New(apperr.KindValidation, "stock must not be negative")
	}

	now := time.Now()
	return &Product{
		Category:    category,
		Name:        strings.TrimSpace(name),
		Description: description,
		Price:       price,
		StockCount:  stock,
		IsActive:    true,
		ImageRef:    imageRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanSupply informa quantas unidades faltam para atender quantity (0 = atende).
// Quantidades não positivas nunca são atendidas.
func (p *Product) CanSupply(quantity int) (missing int, err error) {
	if quantity <= 0 {
		return 0, apperr.New(apperr.KindValidation, "quantity must be positive, got %d", quantity)
	}
	if quantity <= p.StockCount {
		return 0, nil
	}
	return quantity - p.StockCount, nil
}

// Deduct baixa o estoque de uma venda; ao chegar em zero o produto é desativado
func (p *Product) Deduct(quantity int) error {
	missing, err := p.CanSupply(quantity)
	if err != nil {
		return err
	}
	if missing > 0 {
		return apperr.InsufficientStock([]apperr.Shortfall{{
			Category:  string(p.Category),
			ProductID: p.ID,
			Requested: quantity,
			Available: p.StockCount,
			Missing:   missing,
		}})
	}

	p.StockCount -= quantity
	if p.StockCount <= 0 {
		p.IsActive = false
	}
	p.UpdatedAt = time.Now()
	return nil
}

// InventoryMovement representa uma movimentação de estoque
type InventoryMovement struct {
	ID             string    `json:"id" db:"id"`
	ProductID      int64     `json:"product_id" db:"product_id"`
	PaymentID      int64     `json:"payment_id" db:"payment_id"`
	ChangeQuantity int       `json:"change_quantity" db:"change_quantity"`
	MovementType   string    `json:"movement_type" db:"movement_type"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// MovementType representa os tipos de movimentação de estoque
const (
	MovementTypeDecreased = "decreased"
)
