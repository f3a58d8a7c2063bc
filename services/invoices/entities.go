package invoices

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/furniture-marketplace/services/clients"
)

// NumberLayout é o formato do timestamp no número da fatura (YYYYmmddHHMMSS)
const NumberLayout = "20060102150405"

// NumberFor gera FACT-{payment_id}-{timestamp da confirmação}
func NumberFor(paymentID int64, confirmedAt time.Time) string {
	return fmt.Sprintf("FACT-%d-%s", paymentID, confirmedAt.Format(NumberLayout))
}

// Line é um item faturado com o preço do momento da confirmação
type Line struct {
	Category  string          `json:"category"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewLine calcula o subtotal do item
func NewLine(category string, productID int64, name string, unitPrice decimal.Decimal, quantity int) Line {
	return Line{
		Category:  category,
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Invoice é o documento imutável gerado uma vez por pagamento confirmado
type Invoice struct {
	ID               int64           `json:"id" db:"id"`
	PaymentID        int64           `json:"payment_id" db:"payment_id"`
	Number           string          `json:"invoice_number" db:"invoice_number"`
	ClientID         int64           `json:"client_id" db:"client_id"`
	BilledName       string          `json:"billed_name" db:"billed_name"`
	BilledEmail      string          `json:"billed_email" db:"billed_email"`
	BilledPhone      string          `json:"billed_phone" db:"billed_phone"`
	BilledAddress    string          `json:"billed_address" db:"billed_address"`
	BilledCity       string          `json:"billed_city" db:"billed_city"`
	BilledDepartment string          `json:"billed_department" db:"billed_department"`
	CartSnapshot     string          `json:"cart_snapshot" db:"cart_snapshot"`
	Items            []Line          `json:"items" db:"items"`
	Subtotal         decimal.Decimal `json:"subtotal" db:"subtotal"`
	Taxes            decimal.Decimal `json:"taxes" db:"taxes"`
	Total            decimal.Decimal `json:"total" db:"total"`
	IssuedAt         time.Time       `json:"issued_at" db:"issued_at"`
}

// Source reúne o que a confirmação sabe no momento da fatura; os campos
// de contato são os digitados pelo cliente no checkout
type Source struct {
	PaymentID    int64
	ClientID     int64
	CartSnapshot string
	Amount       decimal.Decimal
	ConfirmedAt  time.Time
	FullName     string
	Email        string
	Phone        string
	Address      string
	Profile      *clients.Profile
	Items        []Line
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NewInvoice monta a fatura. Nome e email vêm do checkout com fallback no
// perfil; telefone e endereço só do checkout; cidade e departamento do perfil.
func NewInvoice(src Source) *Invoice {
	profile := src.Profile
	if profile == nil {
		profile = &clients.Profile{}
	}

	items := src.Items
	if items == nil {
		items = []Line{}
	}

	return &Invoice{
		PaymentID:        src.PaymentID,
		Number:           NumberFor(src.PaymentID, src.ConfirmedAt),
		ClientID:         src.ClientID,
		BilledName:       firstNonEmpty(src.FullName, profile.Username),
		BilledEmail:      firstNonEmpty(src.Email, profile.Email),
		BilledPhone:      src.Phone,
		BilledAddress:    src.Address,
		BilledCity:       profile.City,
		BilledDepartment: profile.Department,
		CartSnapshot:     src.CartSnapshot,
		Items:            items,
		Subtotal:         src.Amount,
		Taxes:            decimal.Zero,
		Total:            src.Amount,
		IssuedAt:         src.ConfirmedAt,
	}
}
