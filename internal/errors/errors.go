package errors

import (
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do GoShop.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "NOT_FOUND", "PAYMENT_FAILED")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., recurso duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (e.g., e-mail já cadastrado).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Tipos de Erro de Autenticação e Autorização ---

// UnauthenticatedError indica ausência de identidade na requisição.
type UnauthenticatedError struct {
	Msg string
}

func (e *UnauthenticatedError) Error() string    { return fmt.Sprintf("Não autenticado: %s", e.Msg) }
func (e *UnauthenticatedError) Category() string { return "UNAUTHENTICATED" }
func (e *UnauthenticatedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthenticatedError) Unwrap() error    { return nil }

// NewUnauthenticatedError cria um erro para operações que exigem login.
func NewUnauthenticatedError(msg string) AppError {
	return &UnauthenticatedError{Msg: msg}
}

// InvalidCredentialsError indica e-mail/senha incorretos no login.
// Mesma mensagem para e-mail inexistente e senha errada, para não dar dicas a invasores.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string    { return "Credenciais inválidas." }
func (e *InvalidCredentialsError) Category() string { return "INVALID_CREDENTIALS" }
func (e *InvalidCredentialsError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *InvalidCredentialsError) Unwrap() error    { return nil }

// NewInvalidCredentialsError cria o erro padronizado de falha de login.
func NewInvalidCredentialsError() AppError {
	return &InvalidCredentialsError{}
}

// ForbiddenError indica que o ator autenticado não possui a permissão exigida
// (nem é dono do recurso em questão).
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um erro de autorização negada.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// --- Tipos de Erro do Fluxo de Reset de Senha ---

// PasswordMismatchError indica que a nova senha e a confirmação divergem.
type PasswordMismatchError struct{}

func (e *PasswordMismatchError) Error() string {
	return "A nova senha e a confirmação não coincidem."
}
func (e *PasswordMismatchError) Category() string { return "PASSWORD_MISMATCH" }
func (e *PasswordMismatchError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *PasswordMismatchError) Unwrap() error    { return nil }

// NewPasswordMismatchError cria o erro de divergência de senhas.
func NewPasswordMismatchError() AppError {
	return &PasswordMismatchError{}
}

// InvalidResetTokenError indica token de reset inexistente, já consumido ou expirado.
type InvalidResetTokenError struct{}

func (e *InvalidResetTokenError) Error() string {
	return "Token de reset inválido ou expirado."
}
func (e *InvalidResetTokenError) Category() string { return "INVALID_OR_EXPIRED_TOKEN" }
func (e *InvalidResetTokenError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *InvalidResetTokenError) Unwrap() error    { return nil }

// NewInvalidResetTokenError cria o erro de token de reset inválido/expirado.
func NewInvalidResetTokenError() AppError {
	return &InvalidResetTokenError{}
}

// --- Tipos de Erro de Pagamento (Checkout) ---

// PaymentError representa uma falha reportada pelo (ou na comunicação com o)
// gateway de pagamento durante o checkout.
type PaymentError struct {
	Reason  string
	Timeout bool // A chamada ao gateway estourou o tempo limite
	// Pending indica o caso "cobrado, porém pedido pendente de reconciliação":
	// a cobrança foi confirmada, mas o commit local falhou e a cobrança órfã
	// foi registrada para reconciliação manual/assíncrona.
	Pending bool
	Err     error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("Pagamento falhou: %s", e.Reason)
}
func (e *PaymentError) Category() string {
	if e.Pending {
		return "PAYMENT_PENDING_RECONCILIATION"
	}
	if e.Timeout {
		return "PAYMENT_TIMEOUT"
	}
	return "PAYMENT_FAILED"
}
func (e *PaymentError) HTTPStatus() int { return http.StatusPaymentRequired } // 402
func (e *PaymentError) Unwrap() error   { return e.Err }

// NewPaymentError cria um erro de cobrança recusada pelo gateway.
func NewPaymentError(reason string, err error) AppError {
	return &PaymentError{Reason: reason, Err: err}
}

// NewPaymentTimeoutError cria um erro de tempo esgotado na chamada ao gateway.
func NewPaymentTimeoutError(err error) AppError {
	return &PaymentError{Reason: "tempo limite excedido na chamada ao gateway", Timeout: true, Err: err}
}

// NewPaymentPendingError cria o erro do caminho de compensação da saga:
// cobrança confirmada, commit local falhou, reconciliação registrada.
func NewPaymentPendingError(chargeID string, err error) AppError {
	return &PaymentError{
		Reason:  fmt.Sprintf("cobrança %s confirmada, pedido pendente de reconciliação", chargeID),
		Pending: true,
		Err:     err,
	}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		// O erro é tipado (ValidationError, NotFoundError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
