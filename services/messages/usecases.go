package messages

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
)

// MessageUseCase contém a lógica das conversas de ideias e pagamentos
type MessageUseCase struct {
	repository Repository
	txBeginner database.TxBeginner
	tracer     trace.Tracer
	logger     logrus.FieldLogger
}

// NewMessageUseCase cria uma nova instância de MessageUseCase
func NewMessageUseCase(
	repository Repository,
	txBeginner database.TxBeginner,
	tracer trace.Tracer,
	logger logrus.FieldLogger,
) *MessageUseCase {
	return &MessageUseCase{
		repository: repository,
		txBeginner: txBeginner,
		tracer:     tracer,
		logger:     logger,
	}
}

// PostMessage anexa uma mensagem à conversa do agregado
func (uc *MessageUseCase) PostMessage(ctx context.Context, actor auth.Actor, kind ParentKind, parentID int64, body, imageRef string) (*Message, error) {
	ctx, span := uc.tracer.Start(ctx, "post_message")
	defer span.End()
	span.SetAttributes(
		attribute.String("parent_kind", string(kind)),
		attribute.Int64("parent_id", parentID),
		attribute.String("actor", actor.String()),
	)

	// 1. Inicia a transação
	tx, err := uc.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	// 2. Verifica se o ator participa da conversa
	parent, err := uc.repository.GetParent(ctx, tx, kind, parentID)
	if err != nil {
		return nil, err
	}
	if err := parent.Authorize(actor); err != nil {
		return nil, err
	}

	// 3. Cria e grava a mensagem
	msg, err := NewMessage(Draft{
		ParentKind: kind,
		ParentID:   parentID,
		Sender:     actor,
		Body:       body,
		ImageRef:   imageRef,
	})
	if err != nil {
		return nil, err
	}
	if err := uc.repository.Append(ctx, tx, msg); err != nil {
		return nil, err
	}

	// 4. Espelho legado da última mensagem da empresa
	if actor.IsCompany() {
		if err := uc.repository.UpdateParentMirror(ctx, tx, kind, parentID, msg.Body); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("erro ao comitar mensagem: %w", err)
	}

	uc.logger.Infof("✅ [POST MESSAGE] %s %d by %s", kind, parentID, actor)
	return msg, nil
}

// ListMessages retorna a conversa e marca como lidas as mensagens do outro lado
func (uc *MessageUseCase) ListMessages(ctx context.Context, actor auth.Actor, kind ParentKind, parentID int64) ([]Message, error) {
	parent, err := uc.repository.FindParent(ctx, kind, parentID)
	if err != nil {
		return nil, err
	}
	if err := parent.Authorize(actor); err != nil {
		return nil, err
	}

	thread, err := uc.repository.List(ctx, kind, parentID)
	if err != nil {
		return nil, err
	}

	other := SenderCompany
	if actor.IsCompany() {
		other = SenderClient
	}
	if _, err := uc.repository.MarkRead(ctx, kind, parentID, other); err != nil {
		uc.logger.Warnf("⚠️ [LIST MESSAGES] failed to mark %s %d read: %v", kind, parentID, err)
	}

	return thread, nil
}
