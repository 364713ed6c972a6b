package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"goshop/config"
	"goshop/internal/pkg/cache"
	"goshop/internal/pkg/database"
	"goshop/internal/pkg/email"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/payment"
	"goshop/internal/pkg/random"
	"goshop/internal/pkg/token"

	// Camadas da API para Injeção de Dependências
	"goshop/internal/api/cart"
	"goshop/internal/api/item"
	"goshop/internal/api/order"
	"goshop/internal/api/router"
	"goshop/internal/api/user"
	"goshop/internal/repository/cartrepo"
	"goshop/internal/repository/itemrepo"
	"goshop/internal/repository/orderrepo"
	"goshop/internal/repository/reconrepo"
	"goshop/internal/repository/userrepo"
	"goshop/internal/service/cartservice"
	"goshop/internal/service/itemservice"
	"goshop/internal/service/orderservice"
	"goshop/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoShop...")

	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos mas continuamos:
		// as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"environment": cfg.Environment})

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Serviços de Plataforma (Token, E-mail, Pagamento, Aleatoriedade)
	tokenSvc := token.NewService(cfg.AppSecret, cfg.SessionExpiry)
	mailer := email.NewSMTPSender(email.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.MailFrom,
	})
	gateway := payment.NewStripeGateway(cfg.StripeAPIURL, cfg.StripeSecretKey, cfg.PaymentTimeout)
	randomGen := random.NewCryptoGenerator()
	log.Debug("Serviços de plataforma inicializados.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	itemRepo := itemrepo.NewItemRepository(db, cacheClient, cfg.DBTimeout, log)
	cartRepo := cartrepo.NewCartRepository(db, cfg.DBTimeout, log)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, log)
	reconRepo := reconrepo.NewReconciliationRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	userSvc := userservice.NewService(userRepo, tokenSvc, mailer, randomGen, cfg.ResetTokenTTL, cfg.FrontendURL, log)
	itemSvc := itemservice.NewService(itemRepo, log)
	cartSvc := cartservice.NewService(cartRepo, itemRepo, log)
	orderSvc := orderservice.NewService(cartRepo, orderRepo, reconRepo, gateway, cfg.Currency, cfg.PaymentTimeout, log)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	userHandler := user.NewHandler(userSvc, log, cfg.SessionExpiry)
	itemHandler := item.NewHandler(itemSvc, log)
	cartHandler := cart.NewHandler(cartSvc, log)
	orderHandler := order.NewHandler(orderSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(router.Deps{
		UserHandler:     userHandler,
		ItemHandler:     itemHandler,
		CartHandler:     cartHandler,
		OrderHandler:    orderHandler,
		TokenService:    tokenSvc,
		UserFinder:      userRepo,
		CacheClient:     cacheClient,
		Logger:          log,
		RateLimitMax:    cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // o checkout aguarda o gateway externo
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoShop ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
