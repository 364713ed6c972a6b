package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeGateway implementa a interface Gateway contra a API HTTP de Charges
// do Stripe (POST /v1/charges, corpo form-encoded, Basic Auth com a chave
// secreta e header Idempotency-Key).
type StripeGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewStripeGateway cria o cliente do gateway.
// O timeout do http.Client é um teto absoluto; o deadline por cobrança vem do
// contexto passado em Charge.
func NewStripeGateway(baseURL, secretKey string, timeout time.Duration) *StripeGateway {
	return &StripeGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

// chargeResponse cobre os dois formatos de resposta da API: sucesso (id/status)
// e falha (objeto error com a mensagem do gateway).
type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Charge submete a cobrança ao gateway.
// Qualquer falha retorna *GatewayError; estouro de deadline marca Timeout.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (Charge, error) {

	// 1. Monta o corpo form-encoded esperado pela API
	form := url.Values{}
	form.Set("amount", strconv.Itoa(req.Amount))
	form.Set("currency", req.Currency)
	form.Set("source", req.SourceToken)
	if req.Description != "" {
		form.Set("description", req.Description)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return Charge{}, &GatewayError{Reason: "falha ao montar requisição", Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(g.secretKey, "")
	// A chave de idempotência deduplica retries da mesma tentativa lógica
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	// 2. Executa a chamada (única dependência externa bloqueante do checkout)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return Charge{}, &GatewayError{Reason: "tempo limite excedido", Timeout: true, Err: err}
		}
		return Charge{}, &GatewayError{Reason: "falha de comunicação com o gateway", Err: err}
	}
	defer resp.Body.Close()

	// 3. Decodifica a resposta (sucesso ou erro reportado pelo gateway)
	var body chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Charge{}, &GatewayError{Reason: "resposta ilegível do gateway", Err: err}
	}

	if resp.StatusCode >= 400 || body.Error != nil {
		reason := fmt.Sprintf("cobrança recusada (HTTP %d)", resp.StatusCode)
		if body.Error != nil && body.Error.Message != "" {
			reason = body.Error.Message
		}
		return Charge{}, &GatewayError{Reason: reason}
	}

	if body.ID == "" {
		return Charge{}, &GatewayError{Reason: "resposta do gateway sem identificador de cobrança"}
	}

	return Charge{ID: body.ID, Amount: req.Amount, Currency: req.Currency}, nil
}

// isTimeout verifica se a falha de transporte foi por deadline/timeout.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return false
}
