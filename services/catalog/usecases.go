package catalog

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
)

// CatalogUseCase contém a lógica de leitura e manutenção do catálogo
type CatalogUseCase struct {
	repository Repository
	tracer     trace.Tracer
	logger     logrus.FieldLogger
}

// NewCatalogUseCase cria uma nova instância de CatalogUseCase
func NewCatalogUseCase(repository Repository, tracer trace.Tracer, logger logrus.FieldLogger) *CatalogUseCase {
	return &CatalogUseCase{
		repository: repository,
		tracer:     tracer,
		logger:     logger,
	}
}

func parseCategory(raw string) (Category, error) {
	category, ok := ParseCategory(raw)
	if !ok {
		return "", apperr.New(apperr.KindValidation, "invalid category %q", raw)
	}
	return category, nil
}

// GetProduct busca um produto; a categoria aceita singular ou plural
func (uc *CatalogUseCase) GetProduct(ctx context.Context, rawCategory string, productID int64) (*Product, error) {
	category, err := parseCategory(rawCategory)
	if err != nil {
		return nil, err
	}
	return uc.repository.GetProduct(ctx, category, productID)
}

// ListProducts lista os produtos de uma categoria
func (uc *CatalogUseCase) ListProducts(ctx context.Context, rawCategory string, onlyActive bool) ([]Product, error) {
	category, err := parseCategory(rawCategory)
	if err != nil {
		return nil, err
	}
	return uc.repository.ListByCategory(ctx, category, onlyActive)
}

// ToggleActive inverte o flag de ativo do produto, sem olhar o estoque
func (uc *CatalogUseCase) ToggleActive(ctx context.Context, rawCategory string, productID int64) (*Product, error) {
	ctx, span := uc.tracer.Start(ctx, "toggle_product_active")
	defer span.End()

	category, err := parseCategory(rawCategory)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("category", string(category)),
		attribute.Int64("product_id", productID),
	)

	product, err := uc.repository.ToggleActive(ctx, category, productID)
	if err != nil {
		uc.logger.Errorf("❌ [TOGGLE PRODUCT] %s %d: %v", category, productID, err)
		return nil, err
	}

	uc.logger.Infof("✅ [TOGGLE PRODUCT] %s %d is_active=%t", category, productID, product.IsActive)
	return product, nil
}
