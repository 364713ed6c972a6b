package cart

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

// CartService define o contrato que o Handler espera da camada de Serviço.
type CartService interface {
	AddToCart(ctx context.Context, actor *domain.User, itemID string) (domain.CartItem, error)
	RemoveFromCart(ctx context.Context, actor *domain.User, cartItemID string) error
	Cart(ctx context.Context, actor *domain.User) ([]domain.CartItem, error)
}

// AddRequest representa o payload de entrada para adicionar ao carrinho.
type AddRequest struct {
	ItemID string `json:"itemId"`
}

// Handler agrupa todos os métodos de Handler do carrinho.
type Handler struct {
	Service CartService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CartService, log logger.Logger) *Handler {
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
		h.Logger.Error("Erro interno no serviço de carrinho:", err)
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

// CartHandler despacha /v1/cart: GET (listar) e POST (adicionar).
func (h *Handler) CartHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getCart(w, r)
	case http.MethodPost:
		h.addToCart(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// getCart lida com GET /v1/cart.
// @Summary Lista o carrinho do usuário da sessão
// @Description Cada linha vem com o item do catálogo resolvido.
// @Tags cart
// @Produce json
// @Success 200 {array} domain.CartItem "Linhas do carrinho"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Router /cart [get]
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	lines, err := h.Service.Cart(ctx, actor)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, lines, nil, http.StatusOK)
}

// addToCart lida com POST /v1/cart.
// @Summary Adiciona um item ao carrinho
// @Description Item já presente incrementa a quantidade da linha existente (nunca cria duplicata).
// @Tags cart
// @Accept json
// @Produce json
// @Param request body AddRequest true "ID do item do catálogo"
// @Success 200 {object} domain.CartItem "Linha do carrinho resultante"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado no catálogo"
// @Router /cart [post]
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	line, err := h.Service.AddToCart(ctx, actor, req.ItemID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, line, nil, http.StatusOK)
}

// RemoveFromCartHandler lida com DELETE /v1/cart/{id}.
// @Summary Remove uma linha do carrinho
// @Description Apenas o dono da linha pode removê-la, independente de permissões.
// @Tags cart
// @Produce json
// @Param id path string true "ID da linha do carrinho"
// @Success 200 {object} map[string]string "Linha removida"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Linha pertence a outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Linha não encontrada"
// @Router /cart/{id} [delete]
func (h *Handler) RemoveFromCartHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
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
	cartItemID := segments[2]

	if err := h.Service.RemoveFromCart(ctx, actor, cartItemID); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"id": cartItemID, "message": "Linha removida do carrinho."}, nil, http.StatusOK)
}
