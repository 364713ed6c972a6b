package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"goshop/internal/pkg/payment"
)

// TestCharge_Success testa uma cobrança aceita: forma do request (rota, auth,
// idempotência, corpo) e mapeamento da resposta.
func TestCharge_Success(t *testing.T) {
	var gotPath, gotIdempotencyKey, gotUser, gotAmount, gotSource string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")
		gotUser, _, _ = r.BasicAuth()

		r.ParseForm()
		gotAmount = r.PostFormValue("amount")
		gotSource = r.PostFormValue("source")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "ch_teste_123", "status": "succeeded"}`))
	}))
	defer server.Close()

	gateway := payment.NewStripeGateway(server.URL, "sk_test_abc", 5*time.Second)

	charge, err := gateway.Charge(context.Background(), payment.ChargeRequest{
		Amount:         2500,
		Currency:       "usd",
		SourceToken:    "tok_visa",
		IdempotencyKey: "chave-estavel-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "ch_teste_123", charge.ID)
	assert.Equal(t, 2500, charge.Amount)

	assert.Equal(t, "/v1/charges", gotPath)
	assert.Equal(t, "chave-estavel-1", gotIdempotencyKey)
	assert.Equal(t, "sk_test_abc", gotUser)
	assert.Equal(t, "2500", gotAmount)
	assert.Equal(t, "tok_visa", gotSource)
}

// TestCharge_Fail_Declined testa cobrança recusada: a mensagem do gateway é
// preservada e o erro não é marcado como timeout.
func TestCharge_Fail_Declined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"message": "Your card was declined.", "code": "card_declined"}}`))
	}))
	defer server.Close()

	gateway := payment.NewStripeGateway(server.URL, "sk_test_abc", 5*time.Second)

	_, err := gateway.Charge(context.Background(), payment.ChargeRequest{
		Amount: 2500, Currency: "usd", SourceToken: "tok_chargeDeclined",
	})

	assert.Error(t, err)
	gwErr, ok := err.(*payment.GatewayError)
	assert.True(t, ok)
	assert.False(t, gwErr.Timeout)
	assert.Contains(t, gwErr.Reason, "declined")
}

// TestCharge_Fail_Timeout testa que o deadline do contexto marca o erro como
// timeout (resultado ambíguo: a cobrança pode ter ocorrido).
func TestCharge_Fail_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"id": "ch_tarde_demais"}`))
	}))
	defer server.Close()

	gateway := payment.NewStripeGateway(server.URL, "sk_test_abc", 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gateway.Charge(ctx, payment.ChargeRequest{
		Amount: 2500, Currency: "usd", SourceToken: "tok_visa",
	})

	assert.Error(t, err)
	gwErr, ok := err.(*payment.GatewayError)
	assert.True(t, ok)
	assert.True(t, gwErr.Timeout)
}

// TestCharge_Fail_MissingChargeID testa a resposta 200 sem identificador.
func TestCharge_Fail_MissingChargeID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "succeeded"}`))
	}))
	defer server.Close()

	gateway := payment.NewStripeGateway(server.URL, "sk_test_abc", 5*time.Second)

	_, err := gateway.Charge(context.Background(), payment.ChargeRequest{
		Amount: 2500, Currency: "usd", SourceToken: "tok_visa",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "identificador")
}
