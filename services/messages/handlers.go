package messages

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
	"github.com/matheusmosca/furniture-marketplace/internal/storage"
)

// Service é o que os handlers precisam do caso de uso
type Service interface {
	PostMessage(ctx context.Context, actor auth.Actor, kind ParentKind, parentID int64, body, imageRef string) (*Message, error)
	ListMessages(ctx context.Context, actor auth.Actor, kind ParentKind, parentID int64) ([]Message, error)
}

// PostMessageRequest é o corpo de POST .../messages
type PostMessageRequest struct {
	Body     string `json:"body"`
	ImageRef string `json:"image_ref"`
}

// MessageView é a mensagem com a URL da imagem resolvida
type MessageView struct {
	Message
	ImageURL string `json:"image_url,omitempty"`
}

// MessageHandler contém os handlers HTTP das conversas
type MessageHandler struct {
	useCase Service
	files   storage.Resolver
}

// NewMessageHandler cria uma nova instância de MessageHandler
func NewMessageHandler(useCase Service, files storage.Resolver) *MessageHandler {
	return &MessageHandler{
		useCase: useCase,
		files:   files,
	}
}

// List retorna o handler GET .../:id/messages para o tipo de agregado
func (h *MessageHandler) List(kind ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parentID, ok := httpresp.ParamID(c, "id")
		if !ok {
			return
		}
		actor, _ := auth.ActorFrom(c)

		thread, err := h.useCase.ListMessages(c.Request.Context(), actor, kind, parentID)
		if err != nil {
			httpresp.Fail(c, err)
			return
		}

		views := make([]MessageView, 0, len(thread))
		for _, m := range thread {
			v := MessageView{Message: m}
			if m.ImageRef != nil {
				v.ImageURL = h.files.PublicURL(*m.ImageRef)
			}
			views = append(views, v)
		}
		httpresp.OK(c, views)
	}
}

// Post retorna o handler POST .../:id/messages para o tipo de agregado
func (h *MessageHandler) Post(kind ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parentID, ok := httpresp.ParamID(c, "id")
		if !ok {
			return
		}

		var req PostMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpresp.BadRequest(c, err)
			return
		}
		actor, _ := auth.ActorFrom(c)

		msg, err := h.useCase.PostMessage(c.Request.Context(), actor, kind, parentID, req.Body, req.ImageRef)
		if err != nil {
			httpresp.Fail(c, err)
			return
		}
		httpresp.Created(c, msg)
	}
}
