// Package dbtest fornece dublês de transação para os testes dos casos de uso.
package dbtest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// MockTx registra Commit e Rollback
type MockTx struct {
	mock.Mock
	Committed  bool
	RolledBack bool
}

func (m *MockTx) Commit() error {
	if len(m.ExpectedCalls) > 0 {
		if err := m.Called().Error(0); err != nil {
			return err
		}
	}
	m.Committed = true
	return nil
}

// Rollback depois de Commit é um no-op, como em pgx
func (m *MockTx) Rollback() error {
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTxBeginner devolve sempre a mesma MockTx
type MockTxBeginner struct {
	Tx    *MockTx
	Err   error
	Calls int
}

// NewTxBeginner cria um MockTxBeginner com uma MockTx nova
func NewTxBeginner() *MockTxBeginner {
	return &MockTxBeginner{Tx: &MockTx{}}
}

func (b *MockTxBeginner) BeginTx(ctx context.Context) (database.Tx, error) {
	b.Calls++
	if b.Err != nil {
		return nil, b.Err
	}
	return b.Tx, nil
}
