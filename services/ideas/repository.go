package ideas

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// Repository define a interface para operações de banco de dados de ideias
type Repository interface {
	Create(ctx context.Context, idea *Idea) error
	Get(ctx context.Context, ideaID int64) (*Idea, error)
	GetForUpdate(ctx context.Context, tx database.Tx, ideaID int64) (*Idea, error)
	Update(ctx context.Context, tx database.Tx, idea *Idea) error
	ListByAuthor(ctx context.Context, authorID int64) ([]Idea, error)
	ListForCompany(ctx context.Context, companyID int64) ([]Idea, error)
}

// PostgresIdeaRepository implementa Repository usando PostgreSQL
type PostgresIdeaRepository struct {
	db database.DB
}

// NewIdeaRepository cria uma nova instância de PostgresIdeaRepository
func NewIdeaRepository(db database.DB) *PostgresIdeaRepository {
	return &PostgresIdeaRepository{db: db}
}

const ideaColumns = `id, author_id, title, description, category, dimensions, image_ref, model3d_ref, state,
	assigned_company_id, publication_permission, published_as_product, published_product_id,
	publication_date, company_message, created_at, updated_at`

func scanIdea(row pgx.Row) (*Idea, error) {
	var i Idea
	err := row.Scan(
		&i.ID,
		&i.AuthorID,
		&i.Title,
		&i.Description,
		&i.Category,
		&i.Dimensions,
		&i.ImageRef,
		&i.Model3DRef,
		&i.State,
		&i.AssignedCompanyID,
		&i.PublicationPermission,
		&i.PublishedAsProduct,
		&i.PublishedProductID,
		&i.PublicationDate,
		&i.CompanyMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func wrapGet(ideaID int64, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "idea %d not found", ideaID)
	}
	return fmt.Errorf("failed to get idea %d: %w", ideaID, err)
}

// Create insere uma nova ideia pendente
func (r *PostgresIdeaRepository) Create(ctx context.Context, idea *Idea) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO ideas (author_id, title, description, category, dimensions, image_ref, model3d_ref, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, idea.AuthorID, idea.Title, idea.Description, idea.Category, idea.Dimensions,
		idea.ImageRef, idea.Model3DRef, idea.State, idea.CreatedAt, idea.UpdatedAt).Scan(&idea.ID)
	if err != nil {
		return fmt.Errorf("failed to create idea: %w", err)
	}
	return nil
}

// Get busca uma ideia pelo id
func (r *PostgresIdeaRepository) Get(ctx context.Context, ideaID int64) (*Idea, error) {
	idea, err := scanIdea(r.db.QueryRow(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = $1`, ideaID))
	if err != nil {
		return nil, wrapGet(ideaID, err)
	}
	return idea, nil
}

// GetForUpdate obtém a ideia com lock pessimista (FOR UPDATE)
func (r *PostgresIdeaRepository) GetForUpdate(ctx context.Context, tx database.Tx, ideaID int64) (*Idea, error) {
	pgTx := database.PgxTx(tx)

	idea, err := scanIdea(pgTx.QueryRow(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = $1 FOR UPDATE`, ideaID))
	if err != nil {
		return nil, wrapGet(ideaID, err)
	}
	return idea, nil
}

// Update grava os campos que as transições alteram
func (r *PostgresIdeaRepository) Update(ctx context.Context, tx database.Tx, idea *Idea) error {
	pgTx := database.PgxTx(tx)

	result, err := pgTx.Exec(ctx, `
		UPDATE ideas
		SET state = $1,
		    assigned_company_id = $2,
		    publication_permission = $3,
		    published_as_product = $4,
		    published_product_id = $5,
		    publication_date = $6,
		    updated_at = $7
		WHERE id = $8
	`, idea.State, idea.AssignedCompanyID, idea.PublicationPermission, idea.PublishedAsProduct,
		idea.PublishedProductID, idea.PublicationDate, idea.UpdatedAt, idea.ID)
	if err != nil {
		return fmt.Errorf("failed to update idea: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "idea %d not found", idea.ID)
	}
	return nil
}

func (r *PostgresIdeaRepository) list(ctx context.Context, query string, arg int64) ([]Idea, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer rows.Close()

	result := []Idea{}
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		result = append(result, *idea)
	}
	return result, rows.Err()
}

// ListByAuthor lista as ideias de um cliente, mais recentes primeiro
func (r *PostgresIdeaRepository) ListByAuthor(ctx context.Context, authorID int64) ([]Idea, error) {
	return r.list(ctx, `
		SELECT `+ideaColumns+`
		FROM ideas
		WHERE author_id = $1
		ORDER BY created_at DESC
	`, authorID)
}

// ListForCompany lista as ideias pendentes e as atribuídas à empresa
func (r *PostgresIdeaRepository) ListForCompany(ctx context.Context, companyID int64) ([]Idea, error) {
	return r.list(ctx, `
		SELECT `+ideaColumns+`
		FROM ideas
		WHERE state = 'pendiente' OR assigned_company_id = $1
		ORDER BY created_at DESC
	`, companyID)
}
