package payments

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

var pendingGuardSQL = regexp.QuoteMeta(`WHERE id = $3 AND state = 'pendiente'`)

func beginMockTx(t *testing.T) (pgxmock.PgxPoolIface, database.Tx) {
	t.Helper()
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(db.Close)

	db.ExpectBegin()
	tx, err := database.NewTxBeginner(db).BeginTx(context.Background())
	require.NoError(t, err)
	return db, tx
}

func TestMarkConfirmed_WritesOnlyPendingPayment(t *testing.T) {
	// Arrange
	db, tx := beginMockTx(t)
	repo := NewPaymentRepository(db)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	payment := &Payment{ID: 11, Notes: "ok", ConfirmedAt: &at}

	db.ExpectExec(pendingGuardSQL).
		WithArgs(at, "ok", int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	// Act
	err := repo.MarkConfirmed(context.Background(), tx, payment)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestMarkConfirmed_NoRowsAffectedIsAlreadyDecided(t *testing.T) {
	// Arrange
	db, tx := beginMockTx(t)
	repo := NewPaymentRepository(db)

	// outra confirmação já tirou o pagamento de pendiente
	db.ExpectExec(pendingGuardSQL).
		WithArgs(pgxmock.AnyArg(), "", int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	// Act
	err := repo.MarkConfirmed(context.Background(), tx, &Payment{ID: 11})

	// Assert
	assert.True(t, apperr.Is(err, apperr.KindAlreadyDecided))
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestMarkRejected_NoRowsAffectedIsAlreadyDecided(t *testing.T) {
	// Arrange
	db, tx := beginMockTx(t)
	repo := NewPaymentRepository(db)

	db.ExpectExec(regexp.QuoteMeta(`WHERE id = $2 AND state = 'pendiente'`)).
		WithArgs("comprobante ilegible", int64(12)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	// Act
	err := repo.MarkRejected(context.Background(), tx, &Payment{ID: 12, Notes: "comprobante ilegible"})

	// Assert
	assert.True(t, apperr.Is(err, apperr.KindAlreadyDecided))
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestMarkRejected_PendingPayment(t *testing.T) {
	db, tx := beginMockTx(t)
	repo := NewPaymentRepository(db)

	db.ExpectExec("SET state = 'rechazado'").
		WithArgs("duplicado", int64(12)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.MarkRejected(context.Background(), tx, &Payment{ID: 12, Notes: "duplicado"})

	assert.NoError(t, err)
	assert.NoError(t, db.ExpectationsWereMet())
}

func TestGetForUpdate_NotFound(t *testing.T) {
	db, tx := beginMockTx(t)
	repo := NewPaymentRepository(db)

	db.ExpectQuery("FROM payments WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetForUpdate(context.Background(), tx, 404)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, db.ExpectationsWereMet())
}
