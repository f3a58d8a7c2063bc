package locking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopLocker(t *testing.T) {
	release, err := NoopLocker{}.Acquire(context.Background(), PaymentKey(42))
	require.NoError(t, err)
	require.NotNil(t, release)
	release()
}

func TestPaymentKey(t *testing.T) {
	assert.Equal(t, "payment:confirm:42", PaymentKey(42))
}
