package messages

import (
	"strings"
	"time"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
)

// ParentKind identifica a qual agregado a conversa pertence
type ParentKind string

const (
	ParentIdea    ParentKind = "idea"
	ParentPayment ParentKind = "payment"
)

func (k ParentKind) Valid() bool {
	return k == ParentIdea || k == ParentPayment
}

// SenderKind é o lado da conversa que enviou a mensagem
type SenderKind string

const (
	SenderClient  SenderKind = "client"
	SenderCompany SenderKind = "company"
)

// ImageOnlyBody é o corpo gravado quando só uma imagem foi enviada
const ImageOnlyBody = "[Imagen enviada]"

// Message é uma entrada imutável de uma conversa
type Message struct {
	ID                  int64      `json:"id" db:"id"`
	ParentKind          ParentKind `json:"parent_kind" db:"parent_kind"`
	ParentID            int64      `json:"parent_id" db:"parent_id"`
	SenderKind          SenderKind `json:"sender_kind" db:"sender_kind"`
	SenderName          string     `json:"sender_name" db:"sender_name"`
	Body                string     `json:"body" db:"body"`
	ImageRef            *string    `json:"image_ref,omitempty" db:"image_ref"`
	IsPermissionRequest bool       `json:"is_permission_request" db:"is_permission_request"`
	SentAt              time.Time  `json:"sent_at" db:"sent_at"`
	Read                bool       `json:"read" db:"read"`
}

// Draft são os dados de uma nova mensagem
type Draft struct {
	ParentKind          ParentKind
	ParentID            int64
	Sender              auth.Actor
	Body                string
	ImageRef            string
	IsPermissionRequest bool
}

// NewMessage valida o rascunho e cria a mensagem não lida
func NewMessage(d Draft) (*Message, error) {
	if !d.ParentKind.Valid() {
		return nil, apperr.New(apperr.KindValidation, "invalid message parent %q", d.ParentKind)
	}

	body := strings.TrimSpace(d.Body)
	imageRef := strings.TrimSpace(d.ImageRef)
	if body == "" && imageRef == "" {
		return nil, apperr.New(apperr.KindValidation, "message body or image is required")
	}
	if d.IsPermissionRequest && body == "" {
		return nil, apperr.New(apperr.KindValidation, "permission request message is required")
	}
	if body == "" {
		body = ImageOnlyBody
	}

	msg := &Message{
		ParentKind:          d.ParentKind,
		ParentID:            d.ParentID,
		SenderKind:          SenderKind(d.Sender.Kind),
		SenderName:          d.Sender.Name,
		Body:                body,
		IsPermissionRequest: d.IsPermissionRequest,
		SentAt:              time.Now(),
		Read:                false,
	}
	if imageRef != "" {
		msg.ImageRef = &imageRef
	}
	return msg, nil
}

// Parent é o controle de acesso da conversa
type Parent struct {
	Kind              ParentKind
	ID                int64
	OwnerClientID     int64
	AssignedCompanyID *int64
}

// Authorize verifica se o ator participa da conversa.
// Ideias: o autor ou a empresa atribuída. Pagamentos: o dono ou qualquer empresa.
func (p *Parent) Authorize(actor auth.Actor) error {
	switch {
	case actor.IsClient():
		if actor.ID == p.OwnerClientID {
			return nil
		}
	case actor.IsCompany():
		if p.Kind == ParentPayment {
			return nil
		}
		if p.AssignedCompanyID != nil && *p.AssignedCompanyID == actor.ID {
			return nil
		}
	}
	return apperr.New(apperr.KindForbidden, "%s cannot access %s %d messages", actor, p.Kind, p.ID)
}
