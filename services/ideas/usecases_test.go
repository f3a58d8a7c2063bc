package ideas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/matheusmosca/furniture-marketplace/internal/apperr"
	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
	"github.com/matheusmosca/furniture-marketplace/internal/database/dbtest"
	"github.com/matheusmosca/furniture-marketplace/internal/httpresp"
	"github.com/matheusmosca/furniture-marketplace/internal/logging"
	"github.com/matheusmosca/furniture-marketplace/internal/storage"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
	"github.com/matheusmosca/furniture-marketplace/services/messages"
)

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, idea *Idea) error {
	args := m.Called(ctx, idea)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, ideaID int64) (*Idea, error) {
	args := m.Called(ctx, ideaID)
	if i := args.Get(0); i != nil {
		return i.(*Idea), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetForUpdate(ctx context.Context, tx database.Tx, ideaID int64) (*Idea, error) {
	args := m.Called(ctx, tx, ideaID)
	if i := args.Get(0); i != nil {
		return i.(*Idea), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, tx database.Tx, idea *Idea) error {
	args := m.Called(ctx, tx, idea)
	return args.Error(0)
}

func (m *MockRepository) ListByAuthor(ctx context.Context, authorID int64) ([]Idea, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).([]Idea), args.Error(1)
}

func (m *MockRepository) ListForCompany(ctx context.Context, companyID int64) ([]Idea, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]Idea), args.Error(1)
}

// MockProductStore simula o catálogo
type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) CreateProduct(ctx context.Context, tx database.Tx, product *catalog.Product) error {
	args := m.Called(ctx, tx, product)
	return args.Error(0)
}

// MockMessageStore simula a conversa da ideia
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Append(ctx context.Context, tx database.Tx, msg *messages.Message) error {
	args := m.Called(ctx, tx, msg)
	return args.Error(0)
}

func (m *MockMessageStore) UpdateParentMirror(ctx context.Context, tx database.Tx, kind messages.ParentKind, parentID int64, body string) error {
	args := m.Called(ctx, tx, kind, parentID, body)
	return args.Error(0)
}

type fixture struct {
	repo     *MockRepository
	products *MockProductStore
	messages *MockMessageStore
	txs      *dbtest.MockTxBeginner
	useCase  *IdeaUseCase
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		products: new(MockProductStore),
		messages: new(MockMessageStore),
		txs:      dbtest.NewTxBeginner(),
	}
	f.useCase = NewIdeaUseCase(f.repo, f.products, f.messages, f.txs,
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
		logging.Discard())
	return f
}

func TestIdeaUseCase_Submit(t *testing.T) {
	f := newFixture()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*ideas.Idea")).
		Run(func(args mock.Arguments) { args.Get(1).(*Idea).ID = 7 }).
		Return(nil)

	idea, err := f.useCase.Submit(context.Background(), author, Draft{Title: "Silla mecedora", Category: "silla"})

	require.NoError(t, err)
	assert.Equal(t, int64(7), idea.ID)
	assert.Equal(t, StatePendiente, idea.State)
	f.repo.AssertExpectations(t)
}

func TestIdeaUseCase_Accept(t *testing.T) {
	// Arrange
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(pendingIdea(), nil)
	f.repo.On("Update", mock.Anything, f.txs.Tx, mock.MatchedBy(func(i *Idea) bool {
		return i.State == StateEnProceso && i.AssignedCompanyID != nil && *i.AssignedCompanyID == company.ID
	})).Return(nil)

	// Act
	idea, err := f.useCase.Accept(context.Background(), company, 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StateEnProceso, idea.State)
	assert.True(t, f.txs.Tx.Committed)
	f.repo.AssertExpectations(t)
}

func TestIdeaUseCase_InvalidTransitionDoesNotWrite(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(pendingIdea(), nil)

	_, err := f.useCase.Finalize(context.Background(), company, 1)

	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.False(t, f.txs.Tx.Committed)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdeaUseCase_RejectAppendsCompanyMessage(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(pendingIdea(), nil)
	f.messages.On("Append", mock.Anything, f.txs.Tx, mock.MatchedBy(func(m *messages.Message) bool {
		return m.SenderKind == messages.SenderCompany &&
			m.ParentKind == messages.ParentIdea &&
			m.Body == "Idea rechazada. Motivo: sin stock de roble"
	})).Return(nil)
	f.repo.On("Update", mock.Anything, f.txs.Tx, mock.AnythingOfType("*ideas.Idea")).Return(nil)

	idea, err := f.useCase.Reject(context.Background(), company, 1, "sin stock de roble")

	require.NoError(t, err)
	assert.Equal(t, StateRechazada, idea.State)
	f.messages.AssertExpectations(t)
}

func TestIdeaUseCase_RejectRequiresReason(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(pendingIdea(), nil)

	_, err := f.useCase.Reject(context.Background(), company, 1, "")

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	f.messages.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdeaUseCase_RequestPermissionFlagsMessageAndMirrors(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(finalizedIdea(t), nil)
	f.messages.On("Append", mock.Anything, f.txs.Tx, mock.MatchedBy(func(m *messages.Message) bool {
		return m.IsPermissionRequest && m.Body == "¿Podemos venderla?"
	})).Return(nil)
	f.messages.On("UpdateParentMirror", mock.Anything, f.txs.Tx, messages.ParentIdea, int64(1), "¿Podemos venderla?").Return(nil)
	f.repo.On("Update", mock.Anything, f.txs.Tx, mock.AnythingOfType("*ideas.Idea")).Return(nil)

	idea, err := f.useCase.RequestPublicationPermission(context.Background(), company, 1, "¿Podemos venderla?")

	require.NoError(t, err)
	assert.Equal(t, "¿Podemos venderla?", idea.CompanyMessage)
	assert.Equal(t, StateFinalizada, idea.State)
	f.messages.AssertExpectations(t)
}

func TestIdeaUseCase_PublishAsProduct(t *testing.T) {
	// Arrange
	f := newFixture()
	idea := finalizedIdea(t)
	require.NoError(t, idea.GrantPermission(author))
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(idea, nil)
	f.products.On("CreateProduct", mock.Anything, f.txs.Tx, mock.MatchedBy(func(p *catalog.Product) bool {
		return p.Category == catalog.CategoryEscritorios && p.StockCount == 4 && p.ImageRef == "ideas/1.png"
	})).Run(func(args mock.Arguments) { args.Get(2).(*catalog.Product).ID = 55 }).Return(nil)
	f.repo.On("Update", mock.Anything, f.txs.Tx, mock.AnythingOfType("*ideas.Idea")).Return(nil)

	// Act
	published, product, err := f.useCase.PublishAsProduct(context.Background(), company, 1, PublishRequest{
		Name:        "Escritorio plegable",
		Description: "Roble macizo",
		Price:       decimal.NewFromInt(850),
		Quantity:    4,
		Category:    "escritorio",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(55), product.ID)
	assert.True(t, published.PublishedAsProduct)
	assert.Equal(t, int64(55), *published.PublishedProductID)
	assert.True(t, f.txs.Tx.Committed)
}

func TestIdeaUseCase_PublishWithoutPermissionCreatesNothing(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(finalizedIdea(t), nil)

	_, _, err := f.useCase.PublishAsProduct(context.Background(), company, 1, PublishRequest{
		Name: "x", Price: decimal.NewFromInt(1), Quantity: 1, Category: "mesas",
	})

	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	f.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdeaUseCase_PublishInvalidCategory(t *testing.T) {
	f := newFixture()
	idea := finalizedIdea(t)
	require.NoError(t, idea.GrantPermission(author))
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(idea, nil)

	_, _, err := f.useCase.PublishAsProduct(context.Background(), company, 1, PublishRequest{
		Name: "x", Price: decimal.NewFromInt(1), Quantity: 1, Category: "sofas",
	})

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.False(t, idea.PublishedAsProduct)
	f.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestIdeaUseCase_GetForbiddenForOtherClient(t *testing.T) {
	f := newFixture()
	f.repo.On("Get", mock.Anything, int64(1)).Return(pendingIdea(), nil)

	_, err := f.useCase.Get(context.Background(), stranger, 1)

	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestIdeaHandler_RejectWithoutReason(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, f.txs.Tx, int64(1)).Return(pendingIdea(), nil)

	handler := NewIdeaHandler(f.useCase, storage.PassthroughResolver{}, tracenoop.NewTracerProvider().Tracer("test"))
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(auth.ActorKey, company) })
	router.POST("/ideas/:id/reject", handler.Reject)

	// Act
	req, _ := http.NewRequest(http.MethodPost, "/ideas/1/reject", strings.NewReader(`{"reason":""}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var res httpresp.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, apperr.KindValidation, res.Kind)
	assert.Equal(t, "rejection reason is required", res.ErrorMessage)
}
