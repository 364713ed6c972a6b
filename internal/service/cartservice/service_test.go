package cartservice_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/service/cartservice"
)

// MockCartRepository é uma implementação mock da interface CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Upsert(ctx context.Context, userID, itemID string) (domain.CartItem, error) {
	args := m.Called(ctx, userID, itemID)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindByID(ctx context.Context, id string) (domain.CartItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockItemFinder simula a consulta de existência no catálogo.
type MockItemFinder struct {
	mock.Mock
}

func (m *MockItemFinder) FindByID(ctx context.Context, id string) (domain.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Item), args.Error(1)
}

// TestAddToCart_Success_NewLine testa a primeira adição de um item: linha criada
// com quantidade 1.
func TestAddToCart_Success_NewLine(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockItems := new(MockItemFinder)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, mockItems, mockLogger)

	actor := &domain.User{ID: uuid.New().String()}
	itemID := uuid.New().String()

	mockItems.On("FindByID", mock.Anything, itemID).
		Return(domain.Item{ID: itemID, Title: "Caneca", Price: 1500}, nil)
	mockRepo.On("Upsert", mock.Anything, actor.ID, itemID).
		Return(domain.CartItem{ID: uuid.New().String(), UserID: actor.ID, ItemID: itemID, Quantity: 1}, nil)

	line, err := svc.AddToCart(context.Background(), actor, itemID)

	assert.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, actor.ID, line.UserID)
	mockRepo.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

// TestAddToCart_Success_DuplicateIncrements testa que adicionar o mesmo item de
// novo incrementa a linha existente em vez de criar duplicata.
func TestAddToCart_Success_DuplicateIncrements(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockItems := new(MockItemFinder)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, mockItems, mockLogger)

	actor := &domain.User{ID: uuid.New().String()}
	itemID := uuid.New().String()
	lineID := uuid.New().String()

	mockItems.On("FindByID", mock.Anything, itemID).
		Return(domain.Item{ID: itemID, Price: 1500}, nil)
	// O store resolve o conflito (user_id, item_id) incrementando a quantidade
	mockRepo.On("Upsert", mock.Anything, actor.ID, itemID).
		Return(domain.CartItem{ID: lineID, UserID: actor.ID, ItemID: itemID, Quantity: 2}, nil)

	line, err := svc.AddToCart(context.Background(), actor, itemID)

	assert.NoError(t, err)
	assert.Equal(t, lineID, line.ID)
	assert.Equal(t, 2, line.Quantity)
	mockRepo.AssertExpectations(t)
}

// TestAddToCart_Fail_UnknownItem testa que item inexistente no catálogo falha
// sem tocar no carrinho.
func TestAddToCart_Fail_UnknownItem(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockItems := new(MockItemFinder)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, mockItems, mockLogger)

	actor := &domain.User{ID: uuid.New().String()}
	itemID := uuid.New().String()

	mockItems.On("FindByID", mock.Anything, itemID).
		Return(domain.Item{}, apperror.NewNotFoundError("Item não encontrado."))

	_, err := svc.AddToCart(context.Background(), actor, itemID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

// TestAddToCart_Fail_Unauthenticated testa que sem sessão nada acontece.
func TestAddToCart_Fail_Unauthenticated(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockItems := new(MockItemFinder)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, mockItems, mockLogger)

	_, err := svc.AddToCart(context.Background(), nil, uuid.New().String())

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthenticatedError{}, err)
	mockItems.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

// TestRemoveFromCart_Success_Owner testa que o dono da linha consegue removê-la.
func TestRemoveFromCart_Success_Owner(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, new(MockItemFinder), mockLogger)

	actor := &domain.User{ID: uuid.New().String()}
	lineID := uuid.New().String()

	mockRepo.On("FindByID", mock.Anything, lineID).
		Return(domain.CartItem{ID: lineID, UserID: actor.ID, Quantity: 3}, nil)
	mockRepo.On("Delete", mock.Anything, lineID).Return(nil)

	err := svc.RemoveFromCart(context.Background(), actor, lineID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestRemoveFromCart_Fail_NotOwner testa que a linha de outro usuário é
// intocável, mesmo para ADMIN: no carrinho só vale posse.
func TestRemoveFromCart_Fail_NotOwner(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, new(MockItemFinder), mockLogger)

	admin := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionAdmin}}
	lineID := uuid.New().String()

	mockRepo.On("FindByID", mock.Anything, lineID).
		Return(domain.CartItem{ID: lineID, UserID: uuid.New().String(), Quantity: 1}, nil)

	err := svc.RemoveFromCart(context.Background(), admin, lineID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// TestRemoveFromCart_Fail_LineNotFound testa a remoção de linha inexistente.
func TestRemoveFromCart_Fail_LineNotFound(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, new(MockItemFinder), mockLogger)

	actor := &domain.User{ID: uuid.New().String()}
	lineID := uuid.New().String()

	mockRepo.On("FindByID", mock.Anything, lineID).
		Return(domain.CartItem{}, apperror.NewNotFoundError("Linha do carrinho não encontrada."))

	err := svc.RemoveFromCart(context.Background(), actor, lineID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// TestCart_Success testa a leitura do carrinho com itens resolvidos.
func TestCart_Success(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockLogger := logger.NewLogger("debug")

	svc := cartservice.NewService(mockRepo, new(MockItemFinder), mockLogger)

	actor := &domain.User{ID: uuid.New().String()}
	lines := []domain.CartItem{
		{ID: uuid.New().String(), UserID: actor.ID, Quantity: 2, Item: &domain.Item{Title: "Caneca", Price: 1500}},
		{ID: uuid.New().String(), UserID: actor.ID, Quantity: 1, Item: &domain.Item{Title: "Camiseta", Price: 4500}},
	}
	mockRepo.On("FindByUser", mock.Anything, actor.ID).Return(lines, nil)

	result, err := svc.Cart(context.Background(), actor)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, "Caneca", result[0].Item.Title)
	mockRepo.AssertExpectations(t)
}
