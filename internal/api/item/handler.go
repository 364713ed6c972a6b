package item

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/middleware"
)

// ItemService define o contrato que o Handler espera da camada de Serviço.
type ItemService interface {
	CreateItem(ctx context.Context, actor *domain.User, item domain.Item) (domain.Item, error)
	GetItem(ctx context.Context, id string) (domain.Item, error)
	ListItems(ctx context.Context, page, limit int) ([]domain.Item, error)
	UpdateItem(ctx context.Context, actor *domain.User, id string, update domain.ItemUpdate) (domain.Item, error)
	DeleteItem(ctx context.Context, actor *domain.User, id string) error
}

// Handler agrupa todos os métodos de Handler do catálogo.
type Handler struct {
	Service ItemService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ItemService, log logger.Logger) *Handler {
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
		h.Logger.Error("Erro interno no serviço de itens:", err)
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

// ItemsHandler despacha /v1/items: POST (criar) e GET (listar).
func (h *Handler) ItemsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createItem(w, r)
	case http.MethodGet:
		h.listItems(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemByIDHandler despacha /v1/items/{id}: GET, PATCH e DELETE.
func (h *Handler) ItemByIDHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	itemID := segments[2]

	switch r.Method {
	case http.MethodGet:
		h.getItem(w, r, itemID)
	case http.MethodPatch:
		h.updateItem(w, r, itemID)
	case http.MethodDelete:
		h.deleteItem(w, r, itemID)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// createItem lida com POST /v1/items.
// @Summary Cria um item no catálogo
// @Description Requer sessão ativa. O criador vira o dono do item.
// @Tags items
// @Accept json
// @Produce json
// @Param item body domain.Item true "Dados do item (título, descrição, imagem, preço em centavos)"
// @Success 201 {object} domain.Item "Item criado"
// @Failure 400 {object} domain.ErrorResponse "Título vazio ou preço não positivo"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Router /items [post]
func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	var payload domain.Item
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	newItem, err := h.Service.CreateItem(ctx, actor, payload)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, newItem, nil, http.StatusCreated)
}

// listItems lida com GET /v1/items?page=N&limit=M.
// @Summary Lista itens do catálogo
// @Description Rota pública, paginada. Limite padrão 20.
// @Tags items
// @Produce json
// @Param page query int false "Página (a partir de 1)"
// @Param limit query int false "Itens por página"
// @Success 200 {array} domain.Item "Página de itens"
// @Router /items [get]
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parâmetros ausentes ou malformados caem nos padrões do serviço.
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.Service.ListItems(ctx, page, limit)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, items, nil, http.StatusOK)
}

// getItem lida com GET /v1/items/{id}.
// @Summary Busca um item por ID
// @Description Rota pública, servida com cache-aside no Redis.
// @Tags items
// @Produce json
// @Param id path string true "ID do item"
// @Success 200 {object} domain.Item "Item encontrado"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id} [get]
func (h *Handler) getItem(w http.ResponseWriter, r *http.Request, itemID string) {
	ctx := r.Context()

	found, err := h.Service.GetItem(ctx, itemID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, found, nil, http.StatusOK)
}

// updateItem lida com PATCH /v1/items/{id}.
// @Summary Atualiza campos de um item
// @Description Dono do item, ADMIN ou ITEMUPDATE. Campos omitidos permanecem intactos.
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "ID do item"
// @Param update body domain.ItemUpdate true "Campos a alterar"
// @Success 200 {object} domain.Item "Item atualizado"
// @Failure 400 {object} domain.ErrorResponse "Preço não positivo"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Nem dono, nem permissão"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id} [patch]
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request, itemID string) {
	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	var update domain.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdateItem(ctx, actor, itemID, update)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, updated, nil, http.StatusOK)
}

// deleteItem lida com DELETE /v1/items/{id}.
// @Summary Remove um item do catálogo
// @Description Dono do item, ADMIN ou ITEMDELETE.
// @Tags items
// @Produce json
// @Param id path string true "ID do item"
// @Success 200 {object} map[string]string "Item removido"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Nem dono, nem permissão"
// @Failure 404 {object} domain.ErrorResponse "Item não encontrado"
// @Router /items/{id} [delete]
func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request, itemID string) {
	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	if err := h.Service.DeleteItem(ctx, actor, itemID); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"id": itemID, "message": "Item removido."}, nil, http.StatusOK)
}
