package ideas

import (
	"strings"
	"time"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
)

// State representa os estados do ciclo de vida de uma ideia
type State string

const (
	StatePendiente  State = "pendiente"
	StateEnProceso  State = "en_proceso"
	StateCompletada State = "completada"
	StateFinalizada State = "finalizada"
	StateRechazada  State = "rechazada"
)

// Idea representa a proposta de móvel enviada por um cliente
type Idea struct {
	ID                    int64             `json:"id" db:"id"`
	AuthorID              int64             `json:"author_id" db:"author_id"`
	Title                 string            `json:"title" db:"title"`
	Description           string            `json:"description" db:"description"`
	Category              catalog.Category  `json:"category" db:"category"`
	Dimensions            map[string]string `json:"dimensions" db:"dimensions"`
	ImageRef              string            `json:"image_ref" db:"image_ref"`
	Model3DRef            string            `json:"model3d_ref" db:"model3d_ref"`
	State                 State             `json:"state" db:"state"`
	AssignedCompanyID     *int64            `json:"assigned_company_id" db:"assigned_company_id"`
	PublicationPermission bool              `json:"publication_permission" db:"publication_permission"`
	PublishedAsProduct    bool              `json:"published_as_product" db:"published_as_product"`
	PublishedProductID    *int64            `json:"published_product_id,omitempty" db:"published_product_id"`
	PublicationDate       *time.Time        `json:"publication_date" db:"publication_date"`
	CompanyMessage        string            `json:"company_message" db:"company_message"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at" db:"updated_at"`
}

// Draft são os dados enviados pelo cliente ao propor uma ideia
type Draft struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Dimensions  map[string]string `json:"dimensions"`
	ImageRef    string            `json:"image_ref"`
	Model3DRef  string            `json:"model3d_ref"`
}

// NewIdea cria uma ideia pendente cujo autor é o cliente
func NewIdea(author auth.Actor, d Draft) (*Idea, error) {
	if !author.IsClient() {
		return nil, apperr.New(apperr.KindForbidden, "only clients can submit ideas")
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, apperr.New(apperr.KindValidation, "idea title is required")
	}
	category, ok := catalog.ParseCategory(d.Category)
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "invalid category %q", d.Category)
	}
	dimensions := d.Dimensions
	if dimensions == nil {
		dimensions = map[string]string{}
	}

	now := time.Now()
	return &Idea{
		AuthorID:    author.ID,
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		Category:    category,
		Dimensions:  dimensions,
		ImageRef:    d.ImageRef,
		Model3DRef:  d.Model3DRef,
		State:       StatePendiente,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (i *Idea) requireState(op string, expected State) error {
	if i.State != expected {
		return apperr.New(apperr.KindInvalidState, "cannot %s idea %d in state %s", op, i.ID, i.State)
	}
	return nil
}

// requireAssigned compara a identidade do ator com a empresa atribuída
func (i *Idea) requireAssigned(actor auth.Actor) error {
	if !actor.IsCompany() || i.AssignedCompanyID == nil || *i.AssignedCompanyID != actor.ID {
		return apperr.New(apperr.KindForbidden, "idea %d is not assigned to %s", i.ID, actor)
	}
	return nil
}

func (i *Idea) moveTo(state State) {
	i.State = state
	i.UpdatedAt = time.Now()
}

// Accept vincula a empresa e inicia a produção
func (i *Idea) Accept(actor auth.Actor) error {
	if !actor.IsCompany() {
		return apperr.New(apperr.KindForbidden, "only companies can accept ideas")
	}
	if err := i.requireState("accept", StatePendiente); err != nil {
		return err
	}
	companyID := actor.ID
	i.AssignedCompanyID = &companyID
	i.moveTo(StateEnProceso)
	return nil
}

// Reject encerra a ideia pendente e devolve o texto da mensagem de rejeição.
// A empresa fica atribuída para poder conversar com o autor.
func (i *Idea) Reject(actor auth.Actor, reason string) (string, error) {
	if !actor.IsCompany() {
		return "", apperr.New(apperr.KindForbidden, "only companies can reject ideas")
	}
	if err := i.requireState("reject", StatePendiente); err != nil {
		return "", err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperr.New(apperr.KindValidation, "rejection reason is required")
	}
	companyID := actor.ID
	i.AssignedCompanyID = &companyID
	i.moveTo(StateRechazada)
	return "Idea rechazada. Motivo: " + reason, nil
}

func (i *Idea) Complete(actor auth.Actor) error {
	if err := i.requireState("complete", StateEnProceso); err != nil {
		return err
	}
	if err := i.requireAssigned(actor); err != nil {
		return err
	}
	i.moveTo(StateCompletada)
	return nil
}

func (i *Idea) Finalize(actor auth.Actor) error {
	if err := i.requireState("finalize", StateCompletada); err != nil {
		return err
	}
	if err := i.requireAssigned(actor); err != nil {
		return err
	}
	i.moveTo(StateFinalizada)
	return nil
}

// RequestPermission valida o pedido de permissão de publicação e devolve o texto
func (i *Idea) RequestPermission(actor auth.Actor, message string) (string, error) {
	if err := i.requireState("request publication permission for", StateFinalizada); err != nil {
		return "", err
	}
	if err := i.requireAssigned(actor); err != nil {
		return "", err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.New(apperr.KindValidation, "permission request message is required")
	}
	return message, nil
}

// GrantPermission só pode ser feito pelo autor da ideia
func (i *Idea) GrantPermission(actor auth.Actor) error {
	if !actor.IsClient() || actor.ID != i.AuthorID {
		return apperr.New(apperr.KindForbidden, "only the author can grant publication permission for idea %d", i.ID)
	}
	if err := i.requireState("grant publication permission for", StateFinalizada); err != nil {
		return err
	}
	i.PublicationPermission = true
	i.UpdatedAt = time.Now()
	return nil
}

// CanPublish verifica as pré-condições de publish_as_product
func (i *Idea) CanPublish(actor auth.Actor) error {
	if err := i.requireAssigned(actor); err != nil {
		return err
	}
	if i.PublishedAsProduct {
		return apperr.New(apperr.KindInvalidState, "idea %d was already published as a product", i.ID)
	}
	if err := i.requireState("publish", StateFinalizada); err != nil {
		return err
	}
	if !i.PublicationPermission {
		return apperr.New(apperr.KindForbidden, "idea %d has no publication permission from its author", i.ID)
	}
	return nil
}

// MarkPublished registra o produto criado; só acontece uma vez
func (i *Idea) MarkPublished(actor auth.Actor, productID int64, now time.Time) error {
	if err := i.CanPublish(actor); err != nil {
		return err
	}
	i.PublishedAsProduct = true
	i.PublishedProductID = &productID
	i.PublicationDate = &now
	i.UpdatedAt = now
	return nil
}

// CanView informa se o ator pode ler a ideia; empresas veem todas
func (i *Idea) CanView(actor auth.Actor) bool {
	if actor.IsCompany() {
		return true
	}
	return actor.IsClient() && actor.ID == i.AuthorID
}
