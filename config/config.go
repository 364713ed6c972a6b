package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do aplicativo GoShop.
// Os campos cobrem DB, Cache, Sessão, Pagamento, E-mail e Robustez.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr    string
	CacheTimeout time.Duration

	// Sessão (JWT assinado)
	// AppSecret é a única âncora de confiança da verificação de sessão:
	// a verificação é uma função pura de (token, segredo).
	AppSecret     string
	SessionExpiry time.Duration // ~1 ano

	// Reset de Senha
	ResetTokenTTL time.Duration // 1 hora por padrão
	FrontendURL   string        // Base do link de reset enviado por e-mail

	// Pagamento (Gateway externo)
	StripeSecretKey string
	StripeAPIURL    string
	PaymentTimeout  time.Duration
	Currency        string // valores sempre em unidades mínimas (centavos)

	// E-mail (SMTP)
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout: getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,

		// 4. Sessão
		// O segredo de assinatura é configuração de processo, obrigatória e
		// de vida longa (trocá-lo invalida todas as sessões emitidas).
		AppSecret:     mustGetEnv("APP_SECRET"),
		SessionExpiry: getDurationEnv("SESSION_EXPIRY_HOURS", 365*24) * time.Hour,

		// 5. Reset de Senha
		ResetTokenTTL: getDurationEnv("RESET_TOKEN_TTL_MIN", 60) * time.Minute,
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:7777"),

		// 6. Pagamento
		StripeSecretKey: mustGetEnv("STRIPE_SECRET_KEY"),
		StripeAPIURL:    getEnv("STRIPE_API_URL", "https://api.stripe.com"),
		PaymentTimeout:  getDurationEnv("PAYMENT_TIMEOUT_SEC", 20) * time.Second,
		Currency:        getEnv("CURRENCY", "usd"),

		// 7. E-mail (SMTP)
		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "no-reply@goshop.local"),

		// 8. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
