package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
	"github.com/matheusmosca/furniture-marketplace/internal/logging"
	"github.com/matheusmosca/furniture-marketplace/internal/storage"
)

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetProduct(ctx context.Context, category Category, productID int64) (*Product, error) {
	args := m.Called(ctx, category, productID)
	if p := args.Get(0); p != nil {
		return p.(*Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetProductForUpdate(ctx context.Context, tx database.Tx, category Category, productID int64) (*Product, error) {
	args := m.Called(ctx, tx, category, productID)
	if p := args.Get(0); p != nil {
		return p.(*Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) DecreaseStock(ctx context.Context, tx database.Tx, productID, paymentID int64, quantity int) (*Product, error) {
	args := m.Called(ctx, tx, productID, paymentID, quantity)
	if p := args.Get(0); p != nil {
		return p.(*Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CreateProduct(ctx context.Context, tx database.Tx, product *Product) error {
	args := m.Called(ctx, tx, product)
	return args.Error(0)
}

func (m *MockRepository) ToggleActive(ctx context.Context, category Category, productID int64) (*Product, error) {
	args := m.Called(ctx, category, productID)
	if p := args.Get(0); p != nil {
		return p.(*Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByCategory(ctx context.Context, category Category, onlyActive bool) ([]Product, error) {
	args := m.Called(ctx, category, onlyActive)
	return args.Get(0).([]Product), args.Error(1)
}

func newTestUseCase(repo Repository) *CatalogUseCase {
	return NewCatalogUseCase(repo, noop.NewTracerProvider().Tracer("test"), logging.Discard())
}

func TestCatalogUseCase_GetProductNormalizesAlias(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	expected := &Product{ID: 1, Category: CategorySillas, StockCount: 3}
	repo.On("GetProduct", mock.Anything, CategorySillas, int64(1)).Return(expected, nil)

	// Act
	product, err := newTestUseCase(repo).GetProduct(context.Background(), "Silla", 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, product)
	repo.AssertExpectations(t)
}

func TestCatalogUseCase_InvalidCategory(t *testing.T) {
	repo := new(MockRepository)

	_, err := newTestUseCase(repo).GetProduct(context.Background(), "sofas", 1)

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	repo.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogUseCase_ToggleActive(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ToggleActive", mock.Anything, CategoryMesas, int64(4)).
		Return(&Product{ID: 4, Category: CategoryMesas, StockCount: 0, IsActive: true}, nil)

	product, err := newTestUseCase(repo).ToggleActive(context.Background(), "mesa", 4)

	require.NoError(t, err)
	assert.True(t, product.IsActive)
	repo.AssertExpectations(t)
}

func TestCatalogHandler_GetProductNotFound(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	repo := new(MockRepository)
	repo.On("GetProduct", mock.Anything, CategoryMesas, int64(9)).
		Return(nil, apperr.New(apperr.KindNotFound, "product mesas 9 not found"))

	handler := NewCatalogHandler(newTestUseCase(repo), storage.PassthroughResolver{}, noop.NewTracerProvider().Tracer("test"))
	router := gin.New()
	router.GET("/catalog/:category/:id", handler.GetProduct)

	// Act
	req, _ := http.NewRequest(http.MethodGet, "/catalog/mesas/9", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	var res httpresp.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, apperr.KindNotFound, res.Kind)
}

func TestCatalogHandler_GetProductBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(MockRepository)
	handler := NewCatalogHandler(newTestUseCase(repo), storage.PassthroughResolver{}, noop.NewTracerProvider().Tracer("test"))
	router := gin.New()
	router.GET("/catalog/:category/:id", handler.GetProduct)

	req, _ := http.NewRequest(http.MethodGet, "/catalog/mesas/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything, mock.Anything)
}
