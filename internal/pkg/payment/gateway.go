package payment

import (
	"context"
	"fmt"
)

// ChargeRequest descreve uma cobrança a ser submetida ao gateway externo.
type ChargeRequest struct {
	Amount      int    // unidades mínimas da moeda (centavos)
	Currency    string // e.g., "usd"
	SourceToken string // referência da fonte de pagamento enviada pelo cliente
	// IdempotencyKey identifica uma tentativa lógica de checkout. O gateway a
	// usa para deduplicar cobranças: um retry do cliente após timeout reutiliza
	// a mesma chave e nunca produz cobrança dupla.
	IdempotencyKey string
	Description    string
}

// Charge é a confirmação de cobrança retornada pelo gateway.
type Charge struct {
	ID       string
	Amount   int
	Currency string
}

// Gateway define o contrato com o provedor de pagamento externo.
// A chamada é a única dependência externa bloqueante do checkout e deve ser
// limitada pelo deadline do contexto recebido.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (Charge, error)
}

// GatewayError representa uma falha reportada pelo (ou na comunicação com o)
// gateway. A camada de serviço o traduz para o erro tipado de pagamento.
type GatewayError struct {
	Reason  string
	Timeout bool
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway de pagamento: %s", e.Reason)
}

func (e *GatewayError) Unwrap() error { return e.Err }
