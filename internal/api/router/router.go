package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"goshop/internal/api/cart"
	"goshop/internal/api/item"
	"goshop/internal/api/order"
	"goshop/internal/api/user"
	"goshop/internal/pkg/cache"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/middleware"
)

// Deps agrupa tudo que o roteador precisa para montar a árvore de rotas.
type Deps struct {
	UserHandler  *user.Handler
	ItemHandler  *item.Handler
	CartHandler  *cart.Handler
	OrderHandler *order.Handler

	TokenService middleware.TokenService
	UserFinder   middleware.UserFinder
	CacheClient  cache.Client
	Logger       logger.Logger

	RateLimitMax    int
	RateLimitPeriod time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(deps Deps) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	// --- 1. Rotas de Health Check ---
	mux.HandleFunc("/ping", PingHandler)

	// --- 2. Sessões e Contas (v1) ---
	mux.HandleFunc("/v1/signup", deps.UserHandler.SignupHandler)
	mux.HandleFunc("/v1/signin", deps.UserHandler.SigninHandler)
	mux.HandleFunc("/v1/signout", deps.UserHandler.SignoutHandler)
	mux.HandleFunc("/v1/me", deps.UserHandler.MeHandler)
	mux.HandleFunc("/v1/reset-request", deps.UserHandler.RequestResetHandler)
	mux.HandleFunc("/v1/reset", deps.UserHandler.ResetPasswordHandler)

	// GET /v1/users (listar) e PUT /v1/users/{id}/permissions
	mux.HandleFunc("/v1/users", deps.UserHandler.ListUsersHandler)
	mux.HandleFunc("/v1/users/", deps.UserHandler.UpdatePermissionsHandler)

	// --- 3. Catálogo ---
	mux.HandleFunc("/v1/items", deps.ItemHandler.ItemsHandler)
	mux.HandleFunc("/v1/items/", deps.ItemHandler.ItemByIDHandler)

	// --- 4. Carrinho ---
	mux.HandleFunc("/v1/cart", deps.CartHandler.CartHandler)
	mux.HandleFunc("/v1/cart/", deps.CartHandler.RemoveFromCartHandler)

	// --- 5. Pedidos ---
	mux.HandleFunc("/v1/orders", deps.OrderHandler.OrdersHandler)
	mux.HandleFunc("/v1/orders/", deps.OrderHandler.OrderByIDHandler)
	mux.HandleFunc("/v1/reconciliations", deps.OrderHandler.ReconciliationsHandler)

	// --- 6. Documentação (Swagger UI) ---
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 7. Middlewares Globais ---
	// A resolução de sessão é universal e tolerante: rotas públicas seguem
	// sem usuário no contexto, e a camada de serviço decide o que exige autenticação.
	var handler http.Handler = mux
	handler = middleware.WithSession(deps.TokenService, deps.UserFinder, deps.Logger)(handler)
	handler = middleware.RateLimiter(deps.CacheClient, deps.RateLimitMax, deps.RateLimitPeriod)(handler)

	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
