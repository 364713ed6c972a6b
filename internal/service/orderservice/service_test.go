package orderservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/payment"
	"goshop/internal/service/orderservice"
)

// MockCartRepository é uma implementação mock da interface CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

// MockOrderRepository é uma implementação mock da interface OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Commit(ctx context.Context, order domain.Order) (domain.Order, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Order), args.Error(1)
}

// MockReconRepository registra cobranças órfãs.
type MockReconRepository struct {
	mock.Mock
}

func (m *MockReconRepository) Save(ctx context.Context, entry domain.PaymentReconciliation) (domain.PaymentReconciliation, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(domain.PaymentReconciliation), args.Error(1)
}

func (m *MockReconRepository) FindPending(ctx context.Context) ([]domain.PaymentReconciliation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PaymentReconciliation), args.Error(1)
}

// MockGateway simula o gateway de pagamento externo.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (payment.Charge, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Charge), args.Error(1)
}

func newTestService(carts *MockCartRepository, orders *MockOrderRepository, recon *MockReconRepository, gateway *MockGateway) *orderservice.Service {
	mockLogger := logger.NewLogger("debug")
	return orderservice.NewService(carts, orders, recon, gateway, "usd", 20*time.Second, mockLogger)
}

// twoLineCart devolve um carrinho fixo: 2x R$10,00 + 1x R$5,00 = 2500 centavos.
func twoLineCart(userID string) []domain.CartItem {
	itemA := &domain.Item{ID: uuid.New().String(), Title: "Caneca", Price: 1000}
	itemB := &domain.Item{ID: uuid.New().String(), Title: "Adesivo", Price: 500}
	return []domain.CartItem{
		{ID: uuid.New().String(), UserID: userID, ItemID: itemA.ID, Quantity: 2, Item: itemA},
		{ID: uuid.New().String(), UserID: userID, ItemID: itemB.ID, Quantity: 1, Item: itemB},
	}
}

// TestCreateOrder_Success testa o caminho feliz do checkout: total calculado no
// servidor, cobrança emitida e pedido gravado com snapshot.
func TestCreateOrder_Success(t *testing.T) {
	mockCarts := new(MockCartRepository)
	mockOrders := new(MockOrderRepository)
	mockRecon := new(MockReconRepository)
	mockGateway := new(MockGateway)

	svc := newTestService(mockCarts, mockOrders, mockRecon, mockGateway)

	actor := &domain.User{ID: uuid.New().String()}
	cart := twoLineCart(actor.ID)
	mockCarts.On("FindByUser", mock.Anything, actor.ID).Return(cart, nil)

	var chargeReq payment.ChargeRequest
	mockGateway.On("Charge", mock.Anything, mock.AnythingOfType("payment.ChargeRequest")).
		Run(func(args mock.Arguments) {
			chargeReq = args.Get(1).(payment.ChargeRequest)
		}).
		Return(payment.Charge{ID: "ch_123", Amount: 2500, Currency: "usd"}, nil)

	var committedOrder domain.Order
	mockOrders.On("Commit", mock.Anything, mock.AnythingOfType("domain.Order")).
		Run(func(args mock.Arguments) {
			committedOrder = args.Get(1).(domain.Order)
		}).
		Return(domain.Order{ID: uuid.New().String(), UserID: actor.ID, Total: 2500, Charge: "ch_123"}, nil)

	result, err := svc.CreateOrder(context.Background(), actor, "tok_visa")

	assert.NoError(t, err)
	assert.Equal(t, 2500, result.Total)
	assert.Equal(t, "ch_123", result.Charge)

	// O gateway recebe o total do servidor, com chave de idempotência preenchida
	assert.Equal(t, 2500, chargeReq.Amount)
	assert.Equal(t, "usd", chargeReq.Currency)
	assert.Equal(t, "tok_visa", chargeReq.SourceToken)
	assert.NotEmpty(t, chargeReq.IdempotencyKey)

	// O pedido gravado carrega o snapshot das linhas (título e preço da compra)
	assert.Len(t, committedOrder.Items, 2)
	assert.Equal(t, "Caneca", committedOrder.Items[0].Title)
	assert.Equal(t, 1000, committedOrder.Items[0].Price)
	assert.Equal(t, 2, committedOrder.Items[0].Quantity)
	assert.Equal(t, committedOrder.ID, committedOrder.Items[0].OrderID)

	mockCarts.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
	mockOrders.AssertExpectations(t)
	mockRecon.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateOrder_Fail_EmptyCart testa que carrinho vazio falha antes de
// qualquer cobrança.
func TestCreateOrder_Fail_EmptyCart(t *testing.T) {
	mockCarts := new(MockCartRepository)
	mockOrders := new(MockOrderRepository)
	mockGateway := new(MockGateway)

	svc := newTestService(mockCarts, mockOrders, new(MockReconRepository), mockGateway)

	actor := &domain.User{ID: uuid.New().String()}
	mockCarts.On("FindByUser", mock.Anything, actor.ID).Return([]domain.CartItem{}, nil)

	_, err := svc.CreateOrder(context.Background(), actor, "tok_visa")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockGateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	mockOrders.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

// TestCreateOrder_Fail_Unauthenticated testa que visitante anônimo não compra.
func TestCreateOrder_Fail_Unauthenticated(t *testing.T) {
	mockCarts := new(MockCartRepository)
	mockGateway := new(MockGateway)

	svc := newTestService(mockCarts, new(MockOrderRepository), new(MockReconRepository), mockGateway)

	_, err := svc.CreateOrder(context.Background(), nil, "tok_visa")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthenticatedError{}, err)
	mockCarts.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
}

// TestCreateOrder_Fail_ChargeDeclined testa que cobrança recusada não cria
// pedido nem toca no carrinho.
func TestCreateOrder_Fail_ChargeDeclined(t *testing.T) {
	mockCarts := new(MockCartRepository)
	mockOrders := new(MockOrderRepository)
	mockRecon := new(MockReconRepository)
	mockGateway := new(MockGateway)

	svc := newTestService(mockCarts, mockOrders, mockRecon, mockGateway)

	actor := &domain.User{ID: uuid.New().String()}
	mockCarts.On("FindByUser", mock.Anything, actor.ID).Return(twoLineCart(actor.ID), nil)
	mockGateway.On("Charge", mock.Anything, mock.AnythingOfType("payment.ChargeRequest")).
		Return(payment.Charge{}, &payment.GatewayError{Reason: "cartão recusado"})

	_, err := svc.CreateOrder(context.Background(), actor, "tok_visa")

	assert.Error(t, err)
	assert.IsType(t, &apperror.PaymentError{}, err)
	assert.Contains(t, err.Error(), "recusado")
	// Falha pré-cobrança: nenhum pedido, nenhuma reconciliação
	mockOrders.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	mockRecon.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateOrder_Fail_ChargeTimeout testa o timeout do gateway: o resultado é
// ambíguo, o erro distingue timeout de recusa.
func TestCreateOrder_Fail_ChargeTimeout(t *testing.T) {
	mockCarts := new(MockCartRepository)
	mockOrders := new(MockOrderRepository)
	mockGateway := new(MockGateway)

	svc := newTestService(mockCarts, mockOrders, new(MockReconRepository), mockGateway)

	actor := &domain.User{ID: uuid.New().String()}
	mockCarts.On("FindByUser", mock.Anything, actor.ID).Return(twoLineCart(actor.ID), nil)
	mockGateway.On("Charge", mock.Anything, mock.AnythingOfType("payment.ChargeRequest")).
		Return(payment.Charge{}, &payment.GatewayError{Reason: "tempo esgotado", Timeout: true, Err: context.DeadlineExceeded})

	_, err := svc.CreateOrder(context.Background(), actor, "tok_visa")

	assert.Error(t, err)
	pErr, ok := err.(*apperror.PaymentError)
	assert.True(t, ok)
	assert.True(t, pErr.Timeout)
	mockOrders.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

// TestCreateOrder_Fail_CommitAfterCharge testa a compensação da saga: cobrança
// confirmada + commit local falho registra a cobrança órfã e devolve erro de
// pagamento pendente (nunca perde o dinheiro em silêncio).
func TestCreateOrder_Fail_CommitAfterCharge(t *testing.T) {
	mockCarts := new(MockCartRepository)
	mockOrders := new(MockOrderRepository)
	mockRecon := new(MockReconRepository)
	mockGateway := new(MockGateway)

	svc := newTestService(mockCarts, mockOrders, mockRecon, mockGateway)

	actor := &domain.User{ID: uuid.New().String()}
	mockCarts.On("FindByUser", mock.Anything, actor.ID).Return(twoLineCart(actor.ID), nil)
	mockGateway.On("Charge", mock.Anything, mock.AnythingOfType("payment.ChargeRequest")).
		Return(payment.Charge{ID: "ch_orfa", Amount: 2500, Currency: "usd"}, nil)
	mockOrders.On("Commit", mock.Anything, mock.AnythingOfType("domain.Order")).
		Return(domain.Order{}, errors.New("conexão com o DB perdida"))

	var reconEntry domain.PaymentReconciliation
	mockRecon.On("Save", mock.Anything, mock.AnythingOfType("domain.PaymentReconciliation")).
		Run(func(args mock.Arguments) {
			reconEntry = args.Get(1).(domain.PaymentReconciliation)
		}).
		Return(domain.PaymentReconciliation{ID: uuid.New().String()}, nil)

	_, err := svc.CreateOrder(context.Background(), actor, "tok_visa")

	assert.Error(t, err)
	pErr, ok := err.(*apperror.PaymentError)
	assert.True(t, ok)
	assert.True(t, pErr.Pending)
	assert.Contains(t, err.Error(), "ch_orfa")

	// A reconciliação aponta a cobrança exata e o valor cobrado
	assert.Equal(t, "ch_orfa", reconEntry.ChargeID)
	assert.Equal(t, 2500, reconEntry.Amount)
	assert.Equal(t, actor.ID, reconEntry.UserID)
	mockRecon.AssertExpectations(t)
}

// TestCreateOrder_IdempotencyKeyStable testa que o mesmo carrinho produz a
// mesma chave de idempotência em tentativas repetidas.
func TestCreateOrder_IdempotencyKeyStable(t *testing.T) {
	mockCarts := new(MockCartRepository)
	mockOrders := new(MockOrderRepository)
	mockGateway := new(MockGateway)

	svc := newTestService(mockCarts, mockOrders, new(MockReconRepository), mockGateway)

	actor := &domain.User{ID: uuid.New().String()}
	cart := twoLineCart(actor.ID)
	mockCarts.On("FindByUser", mock.Anything, actor.ID).Return(cart, nil)

	var keys []string
	mockGateway.On("Charge", mock.Anything, mock.AnythingOfType("payment.ChargeRequest")).
		Run(func(args mock.Arguments) {
			keys = append(keys, args.Get(1).(payment.ChargeRequest).IdempotencyKey)
		}).
		Return(payment.Charge{}, &payment.GatewayError{Reason: "tempo esgotado", Timeout: true})

	// Duas tentativas sobre o mesmo snapshot (a primeira falhou por timeout)
	_, _ = svc.CreateOrder(context.Background(), actor, "tok_visa")
	_, _ = svc.CreateOrder(context.Background(), actor, "tok_visa")

	assert.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}

// TestGetOrder_Success_Owner testa a leitura do próprio pedido.
func TestGetOrder_Success_Owner(t *testing.T) {
	mockOrders := new(MockOrderRepository)

	svc := newTestService(new(MockCartRepository), mockOrders, new(MockReconRepository), new(MockGateway))

	actor := &domain.User{ID: uuid.New().String()}
	orderID := uuid.New().String()
	mockOrders.On("FindByID", mock.Anything, orderID).
		Return(domain.Order{ID: orderID, UserID: actor.ID, Total: 2500}, nil)

	result, err := svc.GetOrder(context.Background(), actor, orderID)

	assert.NoError(t, err)
	assert.Equal(t, orderID, result.ID)
}

// TestGetOrder_Fail_NotOwnerNoAdmin testa que o pedido alheio fica oculto para
// quem não é ADMIN.
func TestGetOrder_Fail_NotOwnerNoAdmin(t *testing.T) {
	mockOrders := new(MockOrderRepository)

	svc := newTestService(new(MockCartRepository), mockOrders, new(MockReconRepository), new(MockGateway))

	stranger := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionUser}}
	orderID := uuid.New().String()
	mockOrders.On("FindByID", mock.Anything, orderID).
		Return(domain.Order{ID: orderID, UserID: uuid.New().String()}, nil)

	_, err := svc.GetOrder(context.Background(), stranger, orderID)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

// TestGetOrder_Success_Admin testa que ADMIN enxerga qualquer pedido.
func TestGetOrder_Success_Admin(t *testing.T) {
	mockOrders := new(MockOrderRepository)

	svc := newTestService(new(MockCartRepository), mockOrders, new(MockReconRepository), new(MockGateway))

	admin := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionAdmin}}
	orderID := uuid.New().String()
	mockOrders.On("FindByID", mock.Anything, orderID).
		Return(domain.Order{ID: orderID, UserID: uuid.New().String()}, nil)

	_, err := svc.GetOrder(context.Background(), admin, orderID)

	assert.NoError(t, err)
}

// TestListOrders_Fail_OtherUserNoAdmin testa que listar pedidos de terceiros
// exige ADMIN.
func TestListOrders_Fail_OtherUserNoAdmin(t *testing.T) {
	mockOrders := new(MockOrderRepository)

	svc := newTestService(new(MockCartRepository), mockOrders, new(MockReconRepository), new(MockGateway))

	actor := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionUser}}
	_, err := svc.ListOrders(context.Background(), actor, uuid.New().String())

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockOrders.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
}

// TestPendingReconciliations_Fail_NotAdmin testa que a fila de reconciliação é
// invisível para quem não é ADMIN.
func TestPendingReconciliations_Fail_NotAdmin(t *testing.T) {
	mockRecon := new(MockReconRepository)

	svc := newTestService(new(MockCartRepository), new(MockOrderRepository), mockRecon, new(MockGateway))

	actor := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionUser}}
	_, err := svc.PendingReconciliations(context.Background(), actor)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	mockRecon.AssertNotCalled(t, "FindPending", mock.Anything)
}

// TestPendingReconciliations_Success_Admin testa a listagem para ADMIN.
func TestPendingReconciliations_Success_Admin(t *testing.T) {
	mockRecon := new(MockReconRepository)

	svc := newTestService(new(MockCartRepository), new(MockOrderRepository), mockRecon, new(MockGateway))

	admin := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionAdmin}}
	mockRecon.On("FindPending", mock.Anything).
		Return([]domain.PaymentReconciliation{{ID: uuid.New().String(), ChargeID: "ch_orfa"}}, nil)

	entries, err := svc.PendingReconciliations(context.Background(), admin)

	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	mockRecon.AssertExpectations(t)
}

// TestListOrders_Success_Self testa a listagem dos próprios pedidos.
func TestListOrders_Success_Self(t *testing.T) {
	mockOrders := new(MockOrderRepository)

	svc := newTestService(new(MockCartRepository), mockOrders, new(MockReconRepository), new(MockGateway))

	actor := &domain.User{ID: uuid.New().String()}
	mockOrders.On("FindByUser", mock.Anything, actor.ID).
		Return([]domain.Order{{ID: uuid.New().String(), UserID: actor.ID}}, nil)

	result, err := svc.ListOrders(context.Background(), actor, actor.ID)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	mockOrders.AssertExpectations(t)
}
