package messages

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// Repository define a interface para operações de banco de dados das conversas
type Repository interface {
	GetParent(ctx context.Context, tx database.Tx, kind ParentKind, parentID int64) (*Parent, error)
	FindParent(ctx context.Context, kind ParentKind, parentID int64) (*Parent, error)
	Append(ctx context.Context, tx database.Tx, msg *Message) error
	UpdateParentMirror(ctx context.Context, tx database.Tx, kind ParentKind, parentID int64, body string) error
	List(ctx context.Context, kind ParentKind, parentID int64) ([]Message, error)
	MarkRead(ctx context.Context, kind ParentKind, parentID int64, sentBy SenderKind) (int64, error)
}

// PostgresMessageRepository implementa Repository usando PostgreSQL
type PostgresMessageRepository struct {
	db database.DB
}

// NewMessageRepository cria uma nova instância de PostgresMessageRepository
func NewMessageRepository(db database.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetParent carrega dono e empresa atribuída do agregado pai dentro da transação
func (r *PostgresMessageRepository) GetParent(ctx context.Context, tx database.Tx, kind ParentKind, parentID int64) (*Parent, error) {
	return loadParent(ctx, database.PgxTx(tx), kind, parentID)
}

// FindParent é o GetParent fora de transação, para leituras
func (r *PostgresMessageRepository) FindParent(ctx context.Context, kind ParentKind, parentID int64) (*Parent, error) {
	return loadParent(ctx, r.db, kind, parentID)
}

func loadParent(ctx context.Context, q rowQuerier, kind ParentKind, parentID int64) (*Parent, error) {
	var query string
	switch kind {
	case ParentIdea:
		query = `SELECT author_id, assigned_company_id FROM ideas WHERE id = $1`
	case ParentPayment:
		query = `SELECT client_id, NULL::BIGINT FROM payments WHERE id = $1`
	default:
		return nil, apperr.New(apperr.KindValidation, "invalid message parent %q", kind)
	}

	p := &Parent{Kind: kind, ID: parentID}
	err := q.QueryRow(ctx, query, parentID).Scan(&p.OwnerClientID, &p.AssignedCompanyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "%s %d not found", kind, parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", kind, parentID, err)
	}
	return p, nil
}

// Append insere a mensagem; mensagens nunca são editadas
func (r *PostgresMessageRepository) Append(ctx context.Context, tx database.Tx, msg *Message) error {
	err := database.PgxTx(tx).QueryRow(ctx, `
		INSERT INTO messages (parent_kind, parent_id, sender_kind, sender_name, body, image_ref, is_permission_request, sent_at, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, msg.ParentKind, msg.ParentID, msg.SenderKind, msg.SenderName, msg.Body,
		msg.ImageRef, msg.IsPermissionRequest, msg.SentAt, msg.Read).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// UpdateParentMirror mantém o campo legado com a última mensagem da empresa
func (r *PostgresMessageRepository) UpdateParentMirror(ctx context.Context, tx database.Tx, kind ParentKind, parentID int64, body string) error {
	var query string
	switch kind {
	case ParentIdea:
		query = `UPDATE ideas SET company_message = $1, updated_at = NOW() WHERE id = $2`
	case ParentPayment:
		query = `UPDATE payments SET last_message = $1 WHERE id = $2`
	default:
		return apperr.New(apperr.KindValidation, "invalid message parent %q", kind)
	}

	if _, err := database.PgxTx(tx).Exec(ctx, query, body, parentID); err != nil {
		return fmt.Errorf("failed to update %s mirror: %w", kind, err)
	}
	return nil
}

// List retorna a conversa em ordem de envio
func (r *PostgresMessageRepository) List(ctx context.Context, kind ParentKind, parentID int64) ([]Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, parent_kind, parent_id, sender_kind, sender_name, body, image_ref, is_permission_request, sent_at, read
		FROM messages
		WHERE parent_kind = $1 AND parent_id = $2
		ORDER BY sent_at, id
	`, kind, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	result := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.ParentKind,
			&m.ParentID,
			&m.SenderKind,
			&m.SenderName,
			&m.Body,
			&m.ImageRef,
			&m.IsPermissionRequest,
			&m.SentAt,
			&m.Read,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// MarkRead marca como lidas as mensagens enviadas pelo outro lado
func (r *PostgresMessageRepository) MarkRead(ctx context.Context, kind ParentKind, parentID int64, sentBy SenderKind) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE parent_kind = $1 AND parent_id = $2 AND sender_kind = $3 AND NOT read
	`, kind, parentID, sentBy)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}
