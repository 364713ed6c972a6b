package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/middleware"
)

// OrderService define o contrato que o Handler espera do orquestrador de pedidos.
type OrderService interface {
	CreateOrder(ctx context.Context, actor *domain.User, paymentToken string) (domain.Order, error)
	GetOrder(ctx context.Context, actor *domain.User, id string) (domain.Order, error)
	ListOrders(ctx context.Context, actor *domain.User, userID string) ([]domain.Order, error)
	PendingReconciliations(ctx context.Context, actor *domain.User) ([]domain.PaymentReconciliation, error)
}

// CheckoutRequest representa o payload de entrada para o checkout.
type CheckoutRequest struct {
	// Token de pagamento de uso único emitido pelo gateway no front-end.
	// O servidor nunca vê dados de cartão.
	PaymentToken string `json:"token"`
}

// Handler agrupa todos os métodos de Handler de pedidos.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error("Erro interno no serviço de pedidos:", err)
	} else {
		h.Logger.Debug("Requisição rejeitada.", map[string]interface{}{
			"path":     r.URL.Path,
			"status":   status,
			"category": category,
		})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// OrdersHandler despacha /v1/orders: POST (checkout) e GET (listar os próprios pedidos).
func (h *Handler) OrdersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.checkout(w, r)
	case http.MethodGet:
		h.listOrders(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// checkout lida com POST /v1/orders.
// @Summary Converte o carrinho em um pedido pago
// @Description Cobra o total do carrinho no gateway e grava o pedido com snapshot de preços. O carrinho é esvaziado na mesma transação.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CheckoutRequest true "Token de pagamento de uso único"
// @Success 201 {object} domain.Order "Pedido criado"
// @Failure 400 {object} domain.ErrorResponse "Carrinho vazio ou token ausente"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 402 {object} domain.ErrorResponse "Cobrança recusada, timeout ou pendente de reconciliação"
// @Router /orders [post]
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	newOrder, err := h.Service.CreateOrder(ctx, actor, req.PaymentToken)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, newOrder, nil, http.StatusCreated)
}

// listOrders lida com GET /v1/orders[?userId=X].
// @Summary Lista pedidos de um usuário
// @Description Sem userId, lista os pedidos do próprio ator. Listar os de outro usuário exige ADMIN.
// @Tags orders
// @Produce json
// @Param userId query string false "ID do usuário alvo (padrão: o próprio)"
// @Success 200 {array} domain.Order "Pedidos, mais recentes primeiro"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Pedidos de outro usuário sem ADMIN"
// @Router /orders [get]
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	targetID := r.URL.Query().Get("userId")
	if targetID == "" && actor != nil {
		targetID = actor.ID
	}

	orders, err := h.Service.ListOrders(ctx, actor, targetID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, orders, nil, http.StatusOK)
}

// OrderByIDHandler lida com GET /v1/orders/{id}.
// @Summary Busca um pedido por ID
// @Description Dono do pedido ou ADMIN.
// @Tags orders
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order "Pedido com snapshot de itens"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Pedido de outro usuário sem ADMIN"
// @Failure 404 {object} domain.ErrorResponse "Pedido não encontrado"
// @Router /orders/{id} [get]
func (h *Handler) OrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	orderID := segments[2]

	found, err := h.Service.GetOrder(ctx, actor, orderID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, found, nil, http.StatusOK)
}

// ReconciliationsHandler lida com GET /v1/reconciliations.
// @Summary Lista cobranças pendentes de reconciliação
// @Description Cobranças confirmadas no gateway cujo pedido local falhou ao gravar. Apenas ADMIN.
// @Tags orders
// @Produce json
// @Success 200 {array} domain.PaymentReconciliation "Fila de reconciliação"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão ADMIN"
// @Router /reconciliations [get]
func (h *Handler) ReconciliationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	entries, err := h.Service.PendingReconciliations(ctx, actor)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, entries, nil, http.StatusOK)
}
