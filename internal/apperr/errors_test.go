package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindForbidden, "company %d is not assigned", 7)
	wrapped := fmt.Errorf("accept idea: %w", err)

	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, Is(wrapped, KindForbidden))
	assert.False(t, Is(nil, KindForbidden))
	assert.Equal(t, "company 7 is not assigned", Message(wrapped))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := Wrap(KindMalformedCart, cause, "cart snapshot is not valid JSON")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "malformed_cart")
}

func TestInsufficientStock_Message(t *testing.T) {
	single := InsufficientStock([]Shortfall{{Category: "sillas", ProductID: 2, Requested: 10, Available: 3, Missing: 7}})
	assert.Equal(t, "insufficient stock for sillas 2: available 3, requested 10", single.Message)
	assert.Len(t, single.Shortfalls, 1)

	multi := InsufficientStock([]Shortfall{{ProductID: 1}, {ProductID: 2}})
	assert.Equal(t, "insufficient stock for 2 products", multi.Message)
}
