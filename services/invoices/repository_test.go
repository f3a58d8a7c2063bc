package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
)

func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func newTestInvoice() *Invoice {
	issuedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &Invoice{
		PaymentID:    31,
		Number:       NumberFor(31, issuedAt),
		ClientID:     5,
		BilledName:   "Ana Pérez",
		CartSnapshot: `[{"category":"mesas","id":1,"quantity":1}]`,
		Subtotal:     decimal.NewFromInt(150),
		Total:        decimal.NewFromInt(150),
		IssuedAt:     issuedAt,
	}
}

func TestCreateIfAbsent_InsertsInvoice(t *testing.T) {
	// Arrange
	db := newMockDB(t)
	repo := NewInvoiceRepository(db)
	invoice := newTestInvoice()

	db.ExpectQuery("ON CONFLICT \\(payment_id\\) DO NOTHING").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(400)))

	// Act
	created, err := repo.CreateIfAbsent(context.Background(), invoice)

	// Assert
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(400), invoice.ID)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestCreateIfAbsent_ConflictReturnsExistingInvoice(t *testing.T) {
	// Arrange
	db := newMockDB(t)
	repo := NewInvoiceRepository(db)
	invoice := newTestInvoice()

	db.ExpectQuery("ON CONFLICT \\(payment_id\\) DO NOTHING").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	db.ExpectQuery("SELECT id FROM invoices WHERE payment_id = \\$1").
		WithArgs(int64(31)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(12)))

	// Act
	created, err := repo.CreateIfAbsent(context.Background(), invoice)

	// Assert
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(12), invoice.ID)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestGetByPaymentID_NotFound(t *testing.T) {
	db := newMockDB(t)
	repo := NewInvoiceRepository(db)

	db.ExpectQuery("FROM invoices").
		WithArgs(int64(31)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByPaymentID(context.Background(), 31)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, db.ExpectationsWereMet())
}
