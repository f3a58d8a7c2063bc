package orders

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
)

func str(s string) *string { return &s }

func TestNewOrder(t *testing.T) {
	// Arrange
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	shipping := ShippingAddress{FullName: "Ana Pérez", City: "Medellín"}

	// Act
	order := NewOrder(42, 10, `[{"category":"mesas","id":1,"quantity":2}]`, decimal.NewFromInt(1000), shipping, now, 7)

	// Assert
	assert.Equal(t, StateProcesando, order.State)
	assert.Equal(t, int64(42), order.PaymentID)
	assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), order.EstimatedDeliveryDate)
	assert.Equal(t, "Medellín", order.City)
	assert.Nil(t, order.ActualDeliveryDate)
	assert.Nil(t, order.TrackingNumber)
}

func TestParseState(t *testing.T) {
	for _, s := range States {
		got, ok := ParseState(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseState("perdido")
	assert.False(t, ok)
}

func TestOrderApply_InvalidState(t *testing.T) {
	order := &Order{ID: 1, State: StateProcesando}

	err := order.Apply(ShipmentUpdate{State: "perdido"}, PermissivePolicy{}, time.Now())

	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Equal(t, StateProcesando, order.State)
}

func TestOrderApply_DeliveredTwiceKeepsFirstDate(t *testing.T) {
	order := &Order{ID: 1, State: StateEnTransito}
	first := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	require.NoError(t, order.Apply(ShipmentUpdate{State: "entregado"}, PermissivePolicy{}, first))
	require.NotNil(t, order.ActualDeliveryDate)
	assert.Equal(t, first, *order.ActualDeliveryDate)

	require.NoError(t, order.Apply(ShipmentUpdate{State: "entregado"}, ForwardOnlyPolicy{}, second))
	assert.Equal(t, first, *order.ActualDeliveryDate)
}

func TestOrderApply_TrackingFields(t *testing.T) {
	order := &Order{ID: 1, State: StateEmpacado}

	require.NoError(t, order.Apply(ShipmentUpdate{State: "enviado", TrackingNumber: str(" TRK-1 "), Carrier: str("Servientrega")}, PermissivePolicy{}, time.Now()))
	assert.Equal(t, "TRK-1", *order.TrackingNumber)
	assert.Equal(t, "Servientrega", *order.Carrier)

	require.NoError(t, order.Apply(ShipmentUpdate{State: "en_transito", TrackingNumber: str("")}, PermissivePolicy{}, time.Now()))
	assert.Equal(t, "TRK-1", *order.TrackingNumber)
}

func TestPermissivePolicy_AllowsBackward(t *testing.T) {
	order := &Order{ID: 1, State: StateEntregado}

	require.NoError(t, order.Apply(ShipmentUpdate{State: "procesando"}, PolicyFor(false), time.Now()))
	assert.Equal(t, StateProcesando, order.State)
}

func TestForwardOnlyPolicy(t *testing.T) {
	p := PolicyFor(true)

	cases := []struct {
		from, to State
		allowed  bool
	}{
		{StateProcesando, StateEmpacado, true},
		{StateProcesando, StateEnviado, true},
		{StateEnTransito, StateEntregado, true},
		{StateEnviado, StateEnviado, true},
		{StateEnviado, StateProcesando, false},
		{StateEmpacado, StateCancelado, true},
		{StateEntregado, StateCancelado, false},
		{StateEntregado, StateEntregado, true},
		{StateCancelado, StateProcesando, false},
		{StateCancelado, StateCancelado, true},
	}

	for _, tc := range cases {
		err := p.Allow(tc.from, tc.to)
		if tc.allowed {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.True(t, apperr.Is(err, apperr.KindInvalidState), "%s -> %s", tc.from, tc.to)
		}
	}
}
