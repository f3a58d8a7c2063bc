package apperr

import (
	"errors"
	"fmt"
)

// Kind identifica a categoria de uma falha de regra de negócio
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindForbidden         Kind = "forbidden"
	KindAlreadyConfirmed  Kind = "already_confirmed"
	KindAlreadyDecided    Kind = "already_decided"
	KindInsufficientStock Kind = "insufficient_stock"
	KindMalformedCart     Kind = "malformed_cart"
	KindValidation        Kind = "validation_error"
	KindInternal          Kind = "internal"
)

// Shortfall descreve a falta de estoque de um produto do carrinho
type Shortfall struct {
	Category  string `json:"category"`
	ProductID int64  `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Missing   int    `json:"missing"`
}

// Error é o erro estruturado devolvido pelas operações do domínio
type Error struct {
	Kind       Kind
	Message    string
	Shortfalls []Shortfall
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New cria um erro do tipo informado
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap cria um erro do tipo informado mantendo a causa original
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// InsufficientStock cria o erro de estoque insuficiente com as faltas por produto
func InsufficientStock(shortfalls []Shortfall) *Error {
	msg := "insufficient stock"
	if len(shortfalls) == 1 {
		s := shortfalls[0]
		msg = fmt.Sprintf("insufficient stock for %s %d: available %d, requested %d",
			s.Category, s.ProductID, s.Available, s.Requested)
	} else if len(shortfalls) > 1 {
		msg = fmt.Sprintf("insufficient stock for %d products", len(shortfalls))
	}
	return &Error{Kind: KindInsufficientStock, Message: msg, Shortfalls: shortfalls}
}

// KindOf retorna o Kind de err, ou KindInternal quando não é um *Error
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is verifica se err é um *Error do tipo informado
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Message retorna a mensagem legível de err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
