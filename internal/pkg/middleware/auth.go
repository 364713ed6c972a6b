package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"goshop/internal/domain"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/token"
)

// ContextKey é o tipo da chave usada para armazenar o usuário no contexto.
// Usamos um tipo próprio para garantir que a chave seja única e não haja
// conflito com chaves string de outros pacotes.
type ContextKey int

const (
	UserContextKey ContextKey = iota
)

// SessionCookieName é o nome do cookie que carrega o artefato de sessão.
// O cookie é HttpOnly (não legível por script) e tem validade de ~1 ano.
const SessionCookieName = "token"

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	Validate(tokenString string) (*token.SessionClaims, error)
}

// UserFinder resolve a identidade completa (incluindo permissões) a partir do
// identificador carregado no token. As permissões nunca vêm do token.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
}

// WithSession resolve a identidade uma única vez por requisição e a anexa ao
// contexto, somente-leitura para as camadas seguintes.
//
// A resolução é opcional: requisição sem sessão (ou com sessão inválida) segue
// adiante não autenticada — quem decide se autenticação é exigida é a política
// de autorização na camada de serviço. Isso permite que operações como `me`
// respondam null em vez de 401.
func WithSession(tokenSvc TokenService, users UserFinder, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o artefato: cookie de sessão, com fallback para
			//    Authorization: Bearer <token> (clientes não-navegador).
			raw := extractToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			// 2. Verificação stateless: assinatura e expiração apenas.
			claims, err := tokenSvc.Validate(raw)
			if err != nil {
				log.Debug("Sessão inválida; requisição segue não autenticada.",
					map[string]interface{}{"path": r.URL.Path})
				next.ServeHTTP(w, r)
				return
			}

			// 3. Carregar o usuário do store (permissões frescas).
			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				// Token válido para usuário inexistente (e.g., conta removida)
				log.Warn("Sessão válida para usuário inexistente.",
					map[string]interface{}{"user_id": claims.UserID})
				next.ServeHTTP(w, r)
				return
			}

			// 4. Anexar a identidade ao contexto da requisição.
			ctx := context.WithValue(r.Context(), UserContextKey, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extrai o ator autenticado do contexto, ou nil se a
// requisição não carrega identidade.
func GetUserFromContext(ctx context.Context) *domain.User {
	user, ok := ctx.Value(UserContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// extractToken lê o artefato de sessão do cookie ou do header Authorization.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

// SetSessionCookie anexa o artefato de sessão à resposta, no slot não legível
// por script (HttpOnly). Chamado por signup, signin e resetPassword.
func SetSessionCookie(w http.ResponseWriter, tokenString string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(maxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie limpa o artefato de sessão (logout). Puramente do lado
// da resposta e idempotente.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}
