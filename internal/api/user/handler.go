package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/middleware"
)

// UserService define o contrato que o Handler espera da camada de Serviço.
type UserService interface {
	Signup(ctx context.Context, creds domain.Credentials) (domain.User, string, error)
	Signin(ctx context.Context, email, password string) (domain.User, string, error)
	Users(ctx context.Context, actor *domain.User) ([]domain.User, error)
	UpdatePermissions(ctx context.Context, actor *domain.User, targetID string, permissions []string) (domain.User, error)
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) (domain.User, string, error)
}

// ResetRequest representa o payload de entrada para a solicitação de reset.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest representa o payload de conclusão do reset.
type ResetPasswordRequest struct {
	ResetToken      string `json:"resetToken"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PermissionsRequest representa o payload de atualização de permissões.
type PermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service       UserService
	Logger        logger.Logger
	SessionExpiry time.Duration
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger, sessionExpiry time.Duration) *Handler {
	return &Handler{
		Service:       svc,
		Logger:        log,
		SessionExpiry: sessionExpiry,
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

	// Mapeamento de Erros de Negócio para Status HTTP
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error("Erro interno no serviço de usuário:", err)
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

// SignupHandler lida com a requisição POST /v1/signup.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário com permissão USER, hasheia a senha e inicia a sessão via cookie.
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body domain.Credentials true "Credenciais de registro (email e senha)"
// @Success 201 {object} domain.User "Usuário criado e sessão iniciada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /signup [post]
func (h *Handler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	newUser, sessionToken, err := h.Service.Signup(ctx, creds)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	// Signup já inicia a sessão: cookie HttpOnly com o token.
	middleware.SetSessionCookie(w, sessionToken, h.SessionExpiry)

	// O PasswordHash nunca sai na resposta (tag json:"-").
	h.handleServiceResponse(w, r, newUser, nil, http.StatusCreated)
}

// SigninHandler lida com a requisição POST /v1/signin.
// @Summary Autentica um usuário
// @Description Verifica as credenciais e inicia a sessão via cookie HttpOnly.
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body domain.Credentials true "Credenciais do usuário (email e senha)"
// @Success 200 {object} domain.User "Sessão iniciada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /signin [post]
func (h *Handler) SigninHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	authedUser, sessionToken, err := h.Service.Signin(ctx, creds.Email, creds.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	middleware.SetSessionCookie(w, sessionToken, h.SessionExpiry)
	h.handleServiceResponse(w, r, authedUser, nil, http.StatusOK)
}

// SignoutHandler lida com a requisição POST /v1/signout.
// @Summary Encerra a sessão
// @Description Limpa o cookie de sessão. Sempre tem sucesso, mesmo sem sessão ativa.
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string "Sessão encerrada"
// @Router /signout [post]
func (h *Handler) SignoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	// Sem validação do token atual: signout é idempotente.
	middleware.ClearSessionCookie(w)
	h.handleServiceResponse(w, r, map[string]string{"message": "Sessão encerrada."}, nil, http.StatusOK)
}

// MeHandler lida com a requisição GET /v1/me.
// @Summary Retorna o usuário da sessão atual
// @Description Resolve a sessão do cookie. Sem sessão válida, responde 200 com corpo null (não é erro).
// @Tags users
// @Produce json
// @Success 200 {object} domain.User "Usuário autenticado, ou null"
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	actor := middleware.GetUserFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Encode(nil-pointer) produz o literal "null" esperado pelo cliente.
	json.NewEncoder(w).Encode(actor)
}

// ListUsersHandler lida com a requisição GET /v1/users.
// @Summary Lista todos os usuários
// @Description Requer permissão ADMIN ou PERMISSIONUPDATE.
// @Tags users
// @Produce json
// @Success 200 {array} domain.User "Lista de usuários"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão"
// @Router /users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	users, err := h.Service.Users(ctx, actor)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, users, nil, http.StatusOK)
}

// UpdatePermissionsHandler lida com a requisição PUT /v1/users/{id}/permissions.
// @Summary Substitui as permissões de um usuário
// @Description Requer permissão ADMIN ou PERMISSIONUPDATE. O conjunto enviado substitui o atual.
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID do usuário alvo"
// @Param permissions body PermissionsRequest true "Novo conjunto de permissões"
// @Success 200 {object} domain.User "Usuário com permissões atualizadas"
// @Failure 400 {object} domain.ErrorResponse "Permissão desconhecida no conjunto"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão"
// @Failure 404 {object} domain.ErrorResponse "Usuário alvo não encontrado"
// @Router /users/{id}/permissions [put]
func (h *Handler) UpdatePermissionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	actor := middleware.GetUserFromContext(ctx)

	// Extrair o ID de /v1/users/{id}/permissions
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 4 || segments[3] != "permissions" || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	targetID := segments[2]

	var req PermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdatePermissions(ctx, actor, targetID, req.Permissions)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, updated, nil, http.StatusOK)
}

// RequestResetHandler lida com a requisição POST /v1/reset-request.
// @Summary Inicia o fluxo de redefinição de senha
// @Description Gera um token de uso único e envia o link de redefinição por e-mail.
// @Tags users
// @Accept json
// @Produce json
// @Param request body ResetRequest true "E-mail da conta"
// @Success 200 {object} map[string]string "Solicitação registrada"
// @Failure 404 {object} domain.ErrorResponse "E-mail não cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /reset-request [post]
func (h *Handler) RequestResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	if err := h.Service.RequestReset(ctx, req.Email); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]string{"message": "Obrigado! Verifique seu e-mail para o link de redefinição."}, nil, http.StatusOK)
}

// ResetPasswordHandler lida com a requisição POST /v1/reset.
// @Summary Conclui a redefinição de senha
// @Description Valida o token de reset, troca a senha e inicia uma nova sessão.
// @Tags users
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Token de reset e nova senha (com confirmação)"
// @Success 200 {object} domain.User "Senha redefinida e sessão iniciada"
// @Failure 400 {object} domain.ErrorResponse "Senhas não conferem, ou token inválido/expirado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /reset [post]
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	resetUser, sessionToken, err := h.Service.ResetPassword(ctx, req.ResetToken, req.Password, req.ConfirmPassword)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	// Reset bem-sucedido já autentica o usuário.
	middleware.SetSessionCookie(w, sessionToken, h.SessionExpiry)
	h.handleServiceResponse(w, r, resetUser, nil, http.StatusOK)
}
