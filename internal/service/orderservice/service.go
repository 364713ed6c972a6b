package orderservice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goshop/internal/authz"
	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/payment"
)

// CartRepository é a visão do carrinho que o checkout precisa: apenas a
// leitura com itens resolvidos. A limpeza do carrinho acontece dentro do
// commit do pedido, na mesma transação.
type CartRepository interface {
	FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
}

// OrderRepository define o contrato de persistência de pedidos.
type OrderRepository interface {
	Commit(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

// ReconciliationRepository registra e lista cobranças órfãs (caminho de
// compensação da saga).
type ReconciliationRepository interface {
	Save(ctx context.Context, entry domain.PaymentReconciliation) (domain.PaymentReconciliation, error)
	FindPending(ctx context.Context) ([]domain.PaymentReconciliation, error)
}

// Service é o orquestrador da transação carrinho -> pedido.
//
// O checkout é uma saga: cobrança externa e commit local não cabem em uma
// única transação de banco. A ordem dos passos e o caminho de compensação
// estão em CreateOrder.
type Service struct {
	carts    CartRepository
	orders   OrderRepository
	recon    ReconciliationRepository
	gateway  payment.Gateway
	currency string
	timeout  time.Duration
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Orquestrador de Pedidos.
func NewService(
	carts CartRepository,
	orders OrderRepository,
	recon ReconciliationRepository,
	gateway payment.Gateway,
	currency string,
	paymentTimeout time.Duration,
	log logger.Logger,
) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		recon:    recon,
		gateway:  gateway,
		currency: currency,
		timeout:  paymentTimeout,
		logger:   log,
	}
}

// CreateOrder converte o carrinho do ator em um pedido imutável e corretamente
// precificado, coordenando com o gateway de pagamento externo.
//
// Saga:
//  1. snapshot do carrinho + total calculado no servidor;
//  2. cobrança no gateway com chave de idempotência derivada do snapshot
//     (retry do cliente reutiliza a chave, sem cobrança dupla);
//  3. só após sucesso do gateway, commit local (pedido + limpeza do carrinho)
//     em uma transação;
//  4. se o commit falhar após a cobrança, a cobrança órfã é registrada para
//     reconciliação — nunca perdida em silêncio.
//
// Depois que a chamada ao gateway foi emitida, não há cancelamento: a saga
// corre até o fim (commit ou compensação).
func (s *Service) CreateOrder(ctx context.Context, actor *domain.User, paymentToken string) (domain.Order, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return domain.Order{}, err
	}
	if paymentToken == "" {
		return domain.Order{}, apperror.NewValidationError("Token de pagamento é obrigatório.")
	}

	// 1. Snapshot do carrinho com preços autoritativos do catálogo.
	// Qualquer preço enviado pelo cliente é ignorado.
	lines, err := s.carts.FindByUser(ctx, actor.ID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(lines) == 0 {
		return domain.Order{}, apperror.NewValidationError("O carrinho está vazio.")
	}

	orderID := uuid.NewString()
	total := 0
	orderItems := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		// Aritmética inteira em unidades mínimas; sem ponto flutuante.
		total += line.Item.Price * line.Quantity
		orderItems = append(orderItems, domain.OrderItem{
			ID:       uuid.NewString(),
			OrderID:  orderID,
			ItemID:   line.Item.ID,
			Title:    line.Item.Title,
			Image:    line.Item.Image,
			Price:    line.Item.Price, // preço na data da compra
			Quantity: line.Quantity,
		})
	}

	// 2. Cobrança no gateway, limitada por timeout.
	// A chave de idempotência é estável para o mesmo (ator, snapshot): um retry
	// após timeout deduplica no gateway em vez de cobrar de novo.
	idempotencyKey := checkoutKey(actor.ID, lines)

	chargeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	charge, err := s.gateway.Charge(chargeCtx, payment.ChargeRequest{
		Amount:         total,
		Currency:       s.currency,
		SourceToken:    paymentToken,
		IdempotencyKey: idempotencyKey,
		Description:    fmt.Sprintf("GoShop pedido de %d itens", len(orderItems)),
	})
	if err != nil {
		// Pré-cobrança: nenhum pedido criado, carrinho intocado.
		var gwErr *payment.GatewayError
		if errors.As(err, &gwErr) {
			s.logger.Warn("Cobrança recusada ou falha no gateway.", map[string]interface{}{
				"user_id": actor.ID,
				"total":   total,
				"timeout": gwErr.Timeout,
				"reason":  gwErr.Reason,
			})
			if gwErr.Timeout {
				return domain.Order{}, apperror.NewPaymentTimeoutError(err)
			}
			return domain.Order{}, apperror.NewPaymentError(gwErr.Reason, err)
		}
		return domain.Order{}, apperror.NewPaymentError("falha inesperada na cobrança", err)
	}

	// 3. Commit local: pedido + snapshot + limpeza do carrinho, uma transação.
	order := domain.Order{
		ID:        orderID,
		UserID:    actor.ID,
		Total:     total,
		Charge:    charge.ID,
		Items:     orderItems,
		CreatedAt: time.Now(),
	}

	committed, err := s.orders.Commit(ctx, order)
	if err != nil {
		// 4. Compensação: cobrado, porém sem pedido gravado. Registra a
		// cobrança órfã para reconciliação manual/assíncrona.
		s.logger.Error("Commit local falhou após cobrança confirmada.", err)
		_, reconErr := s.recon.Save(ctx, domain.PaymentReconciliation{
			UserID:   actor.ID,
			ChargeID: charge.ID,
			Amount:   total,
			Currency: s.currency,
			Reason:   err.Error(),
		})
		if reconErr != nil {
			// Pior caso: nem a reconciliação pôde ser registrada. O charge ID
			// fica no log como último rastro.
			s.logger.Error(fmt.Sprintf("FALHA AO REGISTRAR RECONCILIAÇÃO da cobrança %s.", charge.ID), reconErr)
		}
		return domain.Order{}, apperror.NewPaymentPendingError(charge.ID, err)
	}

	s.logger.Info("Checkout concluído.", map[string]interface{}{
		"order_id": committed.ID,
		"user_id":  actor.ID,
		"total":    committed.Total,
		"charge":   committed.Charge,
	})
	return committed, nil
}

// GetOrder busca um pedido. Política: dono do pedido OU ADMIN.
func (s *Service) GetOrder(ctx context.Context, actor *domain.User, id string) (domain.Order, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if err := authz.Authorize(actor, order.UserID, domain.PermissionAdmin); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// ListOrders lista os pedidos de um usuário.
// Política: o próprio userID OU ADMIN.
func (s *Service) ListOrders(ctx context.Context, actor *domain.User, userID string) ([]domain.Order, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	if err := authz.Authorize(actor, userID, domain.PermissionAdmin); err != nil {
		return nil, err
	}

	return s.orders.FindByUser(ctx, userID)
}

// PendingReconciliations lista as cobranças aguardando acerto manual.
// Operação administrativa: exige ADMIN.
func (s *Service) PendingReconciliations(ctx context.Context, actor *domain.User) ([]domain.PaymentReconciliation, error) {
	if err := authz.RequirePermission(actor, domain.PermissionAdmin); err != nil {
		return nil, err
	}
	return s.recon.FindPending(ctx)
}

// checkoutKey deriva a chave de idempotência de uma tentativa lógica de
// checkout: ator + linhas do snapshot (id, item, preço, quantidade), na ordem
// de leitura. O mesmo carrinho produz sempre a mesma chave.
func checkoutKey(userID string, lines []domain.CartItem) string {
	h := sha256.New()
	fmt.Fprintf(h, "checkout:%s", userID)
	for _, line := range lines {
		fmt.Fprintf(h, "|%s:%s:%d:%d", line.ID, line.ItemID, line.Item.Price, line.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))
}
