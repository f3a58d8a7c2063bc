package catalog

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
	"github.com/matheusmosca/furniture-marketplace/internal/storage"
)

// Service é o que os handlers precisam do caso de uso
type Service interface {
	GetProduct(ctx context.Context, rawCategory string, productID int64) (*Product, error)
	ListProducts(ctx context.Context, rawCategory string, onlyActive bool) ([]Product, error)
	ToggleActive(ctx context.Context, rawCategory string, productID int64) (*Product, error)
}

// ProductView é o produto com a URL da imagem resolvida
type ProductView struct {
	Product
	ImageURL string `json:"image_url,omitempty"`
}

// CatalogHandler contém os handlers HTTP do catálogo
type CatalogHandler struct {
	useCase Service
	files   storage.Resolver
	tracer  trace.Tracer
}

// NewCatalogHandler cria uma nova instância de CatalogHandler
func NewCatalogHandler(useCase Service, files storage.Resolver, tracer trace.Tracer) *CatalogHandler {
	return &CatalogHandler{
		useCase: useCase,
		files:   files,
		tracer:  tracer,
	}
}

func (h *CatalogHandler) view(p Product) ProductView {
	return ProductView{Product: p, ImageURL: h.files.PublicURL(p.ImageRef)}
}

// ListProducts é o endpoint GET /catalog/:category; ?all=true inclui inativos
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_products")
	defer span.End()

	category := c.Param("category")
	span.SetAttributes(attribute.String("category", category))

	products, err := h.useCase.ListProducts(ctx, category, c.Query("all") != "true")
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, h.view(p))
	}
	httpresp.OK(c, views)
}

// GetProduct é o endpoint GET /catalog/:category/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "get_product")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID))

	product, err := h.useCase.GetProduct(ctx, c.Param("category"), productID)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, h.view(*product))
}

// ToggleActive é o endpoint POST /catalog/:category/:id/toggle (empresas)
func (h *CatalogHandler) ToggleActive(c *gin.Context) {
	productID, ok := httpresp.ParamID(c, "id")
	if !ok {
		return
	}

	product, err := h.useCase.ToggleActive(c.Request.Context(), c.Param("category"), productID)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, h.view(*product))
}
