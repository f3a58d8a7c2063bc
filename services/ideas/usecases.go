package ideas

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
	"github.com/matheusmosca/furniture-marketplace/services/messages"
)

// ProductStore cria o produto publicado a partir de uma ideia
type ProductStore interface {
	CreateProduct(ctx context.Context, tx database.Tx, product *catalog.Product) error
}

// MessageStore grava mensagens na conversa da ideia
type MessageStore interface {
	Append(ctx context.Context, tx database.Tx, msg *messages.Message) error
	UpdateParentMirror(ctx context.Context, tx database.Tx, kind messages.ParentKind, parentID int64, body string) error
}

// PublishRequest são os dados do produto criado em publish_as_product
type PublishRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// IdeaUseCase contém a lógica de negócio do ciclo de vida das ideias
type IdeaUseCase struct {
	repository  Repository
	products    ProductStore
	messages    MessageStore
	txBeginner  database.TxBeginner
	tracer      trace.Tracer
	logger      logrus.FieldLogger
	transitions metric.Int64Counter
}

// NewIdeaUseCase cria uma nova instância de IdeaUseCase
func NewIdeaUseCase(
	repository Repository,
	products ProductStore,
	messageStore MessageStore,
	txBeginner database.TxBeginner,
	tracer trace.Tracer,
	meter metric.Meter,
	logger logrus.FieldLogger,
) *IdeaUseCase {
	transitions, err := meter.Int64Counter("idea_transitions_total",
		metric.WithDescription("Idea lifecycle transitions by target state"),
		metric.WithUnit("{transition}"))
	if err != nil {
		logger.Warnf("⚠️ failed to create idea_transitions_total counter: %v", err)
	}

	return &IdeaUseCase{
		repository:  repository,
		products:    products,
		messages:    messageStore,
		txBeginner:  txBeginner,
		tracer:      tracer,
		logger:      logger,
		transitions: transitions,
	}
}

// mutate executa fn sobre a ideia bloqueada e grava o resultado na mesma transação
func (uc *IdeaUseCase) mutate(ctx context.Context, op string, ideaID int64, actor auth.Actor, fn func(tx database.Tx, idea *Idea) error) (*Idea, error) {
	ctx, span := uc.tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.Int64("idea_id", ideaID),
		attribute.String("actor", actor.String()),
	)

	uc.logger.Infof("➡️ [%s] IdeaID: %d | Actor: %s", op, ideaID, actor)

	// 1. Inicia a transação
	tx, err := uc.txBeginner.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback()

	// 2. Obtém a ideia com LOCK PESSIMISTA (SELECT FOR UPDATE)
	idea, err := uc.repository.GetForUpdate(ctx, tx, ideaID)
	if err != nil {
		uc.logger.Errorf("❌ [%s] GetForUpdate | IdeaID=%d | Error=%v", op, ideaID, err)
		return nil, err
	}
	previous := idea.State

	// 3. Regra de negócio
	if err := fn(tx, idea); err != nil {
		uc.logger.Infof("ℹ️ [%s] refused | IdeaID=%d | %v", op, ideaID, err)
		return nil, err
	}

	// 4. Grava a ideia
	if err := uc.repository.Update(ctx, tx, idea); err != nil {
		uc.logger.Errorf("❌ [%s] | IdeaID=%d Failed to update: %v", op, ideaID, err)
		return nil, err
	}

	// 5. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("erro ao comitar %s: %w", op, err)
	}

	if idea.State != previous && uc.transitions != nil {
		uc.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(idea.State))))
	}
	uc.logger.Infof("✅ [%s] Success: IdeaID=%d | State=%s", op, ideaID, idea.State)
	return idea, nil
}

// Submit cria uma ideia pendente do cliente
func (uc *IdeaUseCase) Submit(ctx context.Context, actor auth.Actor, draft Draft) (*Idea, error) {
	ctx, span := uc.tracer.Start(ctx, "submit_idea")
	defer span.End()

	idea, err := NewIdea(actor, draft)
	if err != nil {
		return nil, err
	}
	if err := uc.repository.Create(ctx, idea); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("idea_id", idea.ID))
	uc.logger.Infof("✅ [SUBMIT IDEA] IdeaID=%d | Author=%s", idea.ID, actor)
	return idea, nil
}

func (uc *IdeaUseCase) Accept(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error) {
	return uc.mutate(ctx, "ACCEPT IDEA", ideaID, actor, func(_ database.Tx, idea *Idea) error {
		return idea.Accept(actor)
	})
}

// Reject rejeita a ideia e registra o motivo na conversa
func (uc *IdeaUseCase) Reject(ctx context.Context, actor auth.Actor, ideaID int64, reason string) (*Idea, error) {
	return uc.mutate(ctx, "REJECT IDEA", ideaID, actor, func(tx database.Tx, idea *Idea) error {
		body, err := idea.Reject(actor, reason)
		if err != nil {
			return err
		}
		msg, err := messages.NewMessage(messages.Draft{
			ParentKind: messages.ParentIdea,
			ParentID:   idea.ID,
			Sender:     actor,
			Body:       body,
		})
		if err != nil {
			return err
		}
		return uc.messages.Append(ctx, tx, msg)
	})
}

func (uc *IdeaUseCase) Complete(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error) {
	return uc.mutate(ctx, "COMPLETE IDEA", ideaID, actor, func(_ database.Tx, idea *Idea) error {
		return idea.Complete(actor)
	})
}

func (uc *IdeaUseCase) Finalize(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error) {
	return uc.mutate(ctx, "FINALIZE IDEA", ideaID, actor, func(_ database.Tx, idea *Idea) error {
		return idea.Finalize(actor)
	})
}

// RequestPublicationPermission envia ao autor a mensagem marcada como pedido de permissão
func (uc *IdeaUseCase) RequestPublicationPermission(ctx context.Context, actor auth.Actor, ideaID int64, message string) (*Idea, error) {
	return uc.mutate(ctx, "REQUEST PERMISSION", ideaID, actor, func(tx database.Tx, idea *Idea) error {
		body, err := idea.RequestPermission(actor, message)
		if err != nil {
			return err
		}
		msg, err := messages.NewMessage(messages.Draft{
			ParentKind:          messages.ParentIdea,
			ParentID:            idea.ID,
			Sender:              actor,
			Body:                body,
			IsPermissionRequest: true,
		})
		if err != nil {
			return err
		}
		if err := uc.messages.Append(ctx, tx, msg); err != nil {
			return err
		}
		idea.CompanyMessage = body
		return uc.messages.UpdateParentMirror(ctx, tx, messages.ParentIdea, idea.ID, body)
	})
}

func (uc *IdeaUseCase) GrantPublicationPermission(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error) {
	return uc.mutate(ctx, "GRANT PERMISSION", ideaID, actor, func(_ database.Tx, idea *Idea) error {
		return idea.GrantPermission(actor)
	})
}

// PublishAsProduct cria o produto do catálogo e marca a ideia como publicada
func (uc *IdeaUseCase) PublishAsProduct(ctx context.Context, actor auth.Actor, ideaID int64, req PublishRequest) (*Idea, *catalog.Product, error) {
	var product *catalog.Product

	idea, err := uc.mutate(ctx, "PUBLISH IDEA", ideaID, actor, func(tx database.Tx, idea *Idea) error {
		if err := idea.CanPublish(actor); err != nil {
			return err
		}

		category, ok := catalog.ParseCategory(req.Category)
		if !ok {
			return apperr.New(apperr.KindValidation, "invalid category %q", req.Category)
		}
		p, err := catalog.NewProduct(category, req.Name, req.Description, req.Price, req.Quantity, idea.ImageRef)
		if err != nil {
			return err
		}
		if err := uc.products.CreateProduct(ctx, tx, p); err != nil {
			return err
		}
		product = p

		return idea.MarkPublished(actor, p.ID, time.Now())
	})
	if err != nil {
		return nil, nil, err
	}
	return idea, product, nil
}

// Get devolve a ideia quando o ator pode vê-la
func (uc *IdeaUseCase) Get(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error) {
	idea, err := uc.repository.Get(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if !idea.CanView(actor) {
		return nil, apperr.New(apperr.KindForbidden, "%s cannot view idea %d", actor, ideaID)
	}
	return idea, nil
}

// List devolve as ideias do autor, ou as pendentes e atribuídas para empresas
func (uc *IdeaUseCase) List(ctx context.Context, actor auth.Actor) ([]Idea, error) {
	if actor.IsCompany() {
		return uc.repository.ListForCompany(ctx, actor.ID)
	}
	return uc.repository.ListByAuthor(ctx, actor.ID)
}
