package ideas

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
	"github.com/matheusmosca/furniture-marketplace/internal/storage"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
)

// Service é o que os handlers precisam do caso de uso
type Service interface {
	Submit(ctx context.Context, actor auth.Actor, draft Draft) (*Idea, error)
	Accept(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error)
	Reject(ctx context.Context, actor auth.Actor, ideaID int64, reason string) (*Idea, error)
	Complete(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error)
	Finalize(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error)
	RequestPublicationPermission(ctx context.Context, actor auth.Actor, ideaID int64, message string) (*Idea, error)
	GrantPublicationPermission(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error)
	PublishAsProduct(ctx context.Context, actor auth.Actor, ideaID int64, req PublishRequest) (*Idea, *catalog.Product, error)
	Get(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error)
	List(ctx context.Context, actor auth.Actor) ([]Idea, error)
}

// RejectRequest é o corpo de POST /ideas/:id/reject
type RejectRequest struct {
	Reason string `json:"reason"`
}

// PermissionRequest é o corpo de POST /ideas/:id/permission-request
type PermissionRequest struct {
	Message string `json:"message"`
}

// IdeaView é a ideia com as URLs dos arquivos resolvidas
type IdeaView struct {
	Idea
	ImageURL   string `json:"image_url,omitempty"`
	Model3DURL string `json:"model3d_url,omitempty"`
}

// PublishResult é a resposta de publish_as_product
type PublishResult struct {
	Idea    IdeaView         `json:"idea"`
	Product *catalog.Product `json:"product"`
}

// IdeaHandler contém os handlers HTTP das ideias
type IdeaHandler struct {
	useCase Service
	files   storage.Resolver
	tracer  trace.Tracer
}

// NewIdeaHandler cria uma nova instância de IdeaHandler
func NewIdeaHandler(useCase Service, files storage.Resolver, tracer trace.Tracer) *IdeaHandler {
	return &IdeaHandler{
		useCase: useCase,
		files:   files,
		tracer:  tracer,
	}
}

func (h *IdeaHandler) view(i *Idea) IdeaView {
	return IdeaView{
		Idea:       *i,
		ImageURL:   h.files.PublicURL(i.ImageRef),
		Model3DURL: h.files.PublicURL(i.Model3DRef),
	}
}

func (h *IdeaHandler) respond(c *gin.Context, idea *Idea, err error) {
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, h.view(idea))
}

// Submit é o endpoint POST /ideas
func (h *IdeaHandler) Submit(c *gin.Context) {
	var draft Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		httpresp.BadRequest(c, err)
		return
	}
	actor, _ := auth.ActorFrom(c)

	idea, err := h.useCase.Submit(c.Request.Context(), actor, draft)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.Created(c, h.view(idea))
}

// List é o endpoint GET /ideas
func (h *IdeaHandler) List(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)

	list, err := h.useCase.List(c.Request.Context(), actor)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	views := make([]IdeaView, 0, len(list))
	for i := range list {
		views = append(views, h.view(&list[i]))
	}
	httpresp.OK(c, views)
}

// Get é o endpoint GET /ideas/:id
func (h *IdeaHandler) Get(c *gin.Context) {
	ideaID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	actor, _ := auth.ActorFrom(c)

	ctx, span := h.tracer.Start(c.Request.Context(), "get_idea")
	defer span.End()
	span.SetAttributes(attribute.Int64("idea_id", ideaID))

	idea, err := h.useCase.Get(ctx, actor, ideaID)
	h.respond(c, idea, err)
}

// transition adapta as transições sem corpo para gin
func (h *IdeaHandler) transition(fn func(ctx context.Context, actor auth.Actor, ideaID int64) (*Idea, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ideaID, ok := httpresp.ParamID(c, "id")
		if !ok {
			return
		}
		actor, _ := auth.ActorFrom(c)

		idea, err := fn(c.Request.Context(), actor, ideaID)
		h.respond(c, idea, err)
	}
}

func (h *IdeaHandler) Accept() gin.HandlerFunc   { return h.transition(h.useCase.Accept) }
func (h *IdeaHandler) Complete() gin.HandlerFunc { return h.transition(h.useCase.Complete) }
func (h *IdeaHandler) Finalize() gin.HandlerFunc { return h.transition(h.useCase.Finalize) }
func (h *IdeaHandler) GrantPermission() gin.HandlerFunc {
	return h.transition(h.useCase.GrantPublicationPermission)
}

// Reject é o endpoint POST /ideas/:id/reject
func (h *IdeaHandler) Reject(c *gin.Context) {
	ideaID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.BadRequest(c, err)
		return
	}
	actor, _ := auth.ActorFrom(c)

	idea, err := h.useCase.Reject(c.Request.Context(), actor, ideaID, req.Reason)
	h.respond(c, idea, err)
}

// RequestPermission é o endpoint POST /ideas/:id/permission-request
func (h *IdeaHandler) RequestPermission(c *gin.Context) {
	ideaID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.BadRequest(c, err)
		return
	}
	actor, _ := auth.ActorFrom(c)

	idea, err := h.useCase.RequestPublicationPermission(c.Request.Context(), actor, ideaID, req.Message)
	h.respond(c, idea, err)
}

// Publish é o endpoint POST /ideas/:id/publish
func (h *IdeaHandler) Publish(c *gin.Context) {
	ideaID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.BadRequest(c, err)
		return
	}
	actor, _ := auth.ActorFrom(c)

	ctx, span := h.tracer.Start(c.Request.Context(), "publish_idea")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("idea_id", ideaID),
		attribute.String("category", req.Category),
	)

	idea, product, err := h.useCase.PublishAsProduct(ctx, actor, ideaID, req)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.Created(c, PublishResult{Idea: h.view(idea), Product: product})
}
