package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// Repository é a fonte somente leitura dos perfis de cliente
type Repository interface {
	GetProfile(ctx context.Context, clientID int64) (*Profile, error)
}

// PostgresProfileRepository implementa Repository usando PostgreSQL
type PostgresProfileRepository struct {
	db database.DB
}

// NewProfileRepository cria uma nova instância de PostgresProfileRepository
func NewProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// GetProfile busca o perfil do cliente
func (r *PostgresProfileRepository) GetProfile(ctx context.Context, clientID int64) (*Profile, error) {
	var p Profile
	err := r.db.QueryRow(ctx, `
		SELECT id, username, email, full_name, phone, address, city, department, postal_code
		FROM clients
		WHERE id = $1
	`, clientID).Scan(
		&p.ID,
		&p.Username,
		&p.Email,
		&p.FullName,
		&p.Phone,
		&p.Address,
		&p.City,
		&p.Department,
		&p.PostalCode,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "client %d not found", clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client profile: %w", err)
	}
	return &p, nil
}
