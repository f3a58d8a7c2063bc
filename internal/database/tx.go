package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB é o que os repositórios usam do pool; *pgxpool.Pool o implementa
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// TxBeginner abre transações compartilhadas entre repositórios
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// PgxTx extrai a pgx.Tx; repositórios Postgres só aceitam Tx criadas aqui
func PgxTx(tx Tx) pgx.Tx {
	return tx.(*PostgresTx).tx
}

// PostgresTxBeginner implementa TxBeginner usando o pool
type PostgresTxBeginner struct {
	db DB
}

// NewTxBeginner cria uma nova instância de PostgresTxBeginner
func NewTxBeginner(db DB) *PostgresTxBeginner {
	return &PostgresTxBeginner{db: db}
}

// BeginTx inicia uma nova transação
func (b *PostgresTxBeginner) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx}, nil
}
