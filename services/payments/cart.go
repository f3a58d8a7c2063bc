package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
)

// CartLine é uma linha do carrinho: categoria, produto e quantidade
type CartLine struct {
	Category  catalog.Category `json:"category"`
	ProductID int64            `json:"id"`
	Quantity  int              `json:"quantity"`
}

// Chaves aceitas no snapshot; o checkout antigo gravava em espanhol
var (
	categoryKeys = []string{"category", "categoria", "tipo"}
	idKeys       = []string{"id", "product_id", "producto_id"}
	quantityKeys = []string{"quantity", "cantidad"}
)

func malformed(format string, args ...any) error {
	return apperr.New(apperr.KindMalformedCart, format, args...)
}

func lookup(raw map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// MaxLineQuantity é o limite da coluna INTEGER de estoque
const MaxLineQuantity = math.MaxInt32

// positiveInt aceita número JSON ou string numérica entre 1 e max
func positiveInt(v any, max int64) (int64, bool) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 || n > max {
		return 0, false
	}
	return n, true
}

// ParseCart lê o snapshot do carrinho. Qualquer linha sem categoria conhecida,
// sem id ou com quantidade não positiva invalida o carrinho inteiro.
func ParseCart(snapshot string) ([]CartLine, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(snapshot)))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedCart, err, "cart snapshot is not a list of products")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed("cart snapshot has trailing data")
	}
	if len(raw) == 0 {
		return nil, malformed("cart is empty")
	}

	lines := make([]CartLine, 0, len(raw))
	for i, item := range raw {
		rawCategory, _ := lookup(item, categoryKeys)
		name, _ := rawCategory.(string)
		category, ok := catalog.ParseCategory(name)
		if !ok {
			return nil, malformed("line %d: unknown category %q", i+1, name)
		}

		rawID, ok := lookup(item, idKeys)
		if !ok {
			return nil, malformed("line %d: product id is missing", i+1)
		}
		id, ok := positiveInt(rawID, math.MaxInt64)
		if !ok {
			return nil, malformed("line %d: invalid product id %v", i+1, rawID)
		}

		rawQty, _ := lookup(item, quantityKeys)
		qty, ok := positiveInt(rawQty, MaxLineQuantity)
		if !ok {
			return nil, malformed("line %d: quantity must be an integer between 1 and %d", i+1, MaxLineQuantity)
		}

		lines = append(lines, CartLine{Category: category, ProductID: id, Quantity: int(qty)})
	}
	return lines, nil
}

// EncodeCart serializa as linhas no formato canônico {category, id, quantity}
func EncodeCart(lines []CartLine) (string, error) {
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to encode cart: %w", err)
	}
	return string(b), nil
}

// Aggregate soma linhas repetidas do mesmo produto e ordena por (categoria, id),
// a ordem em que as linhas de produto são bloqueadas. Totais fora de
// 1..MaxLineQuantity invalidam o carrinho.
func Aggregate(lines []CartLine) ([]CartLine, error) {
	type key struct {
		category catalog.Category
		id       int64
	}
	totals := map[key]int{}
	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity > MaxLineQuantity {
			return nil, malformed("%s %d: quantity %d out of range", l.Category, l.ProductID, l.Quantity)
		}
		k := key{l.Category, l.ProductID}
		if totals[k] > MaxLineQuantity-l.Quantity {
			return nil, malformed("%s %d: total quantity exceeds %d", l.Category, l.ProductID, MaxLineQuantity)
		}
		totals[k] += l.Quantity
	}

	result := make([]CartLine, 0, len(totals))
	for k, qty := range totals {
		result = append(result, CartLine{Category: k.category, ProductID: k.id, Quantity: qty})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}
