package domain

import "time"

// Order representa um pedido fechado: snapshot imutável do carrinho no momento
// do checkout, com o total calculado no servidor e a referência da cobrança no
// gateway. Criado exatamente uma vez por checkout bem-sucedido; nunca mutado.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Total     int         `json:"total"`  // unidades mínimas da moeda
	Charge    string      `json:"charge"` // identificador da cobrança no gateway
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem é a cópia congelada de uma linha do carrinho: título e preço na
// data da compra, independentes de futuras edições do catálogo.
type OrderItem struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	ItemID   string `json:"item_id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Price    int    `json:"price"` // preço na data da compra
	Quantity int    `json:"quantity"`
}

// PaymentReconciliation registra uma cobrança órfã: o gateway confirmou a
// cobrança, mas o commit local (pedido + limpeza do carrinho) falhou. A linha
// existe para reconciliação manual/assíncrona — a cobrança nunca é perdida em
// silêncio.
type PaymentReconciliation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ChargeID  string    `json:"charge_id"`
	Amount    int       `json:"amount"`
	Currency  string    `json:"currency"`
	Reason    string    `json:"reason"` // erro do commit local
	CreatedAt time.Time `json:"created_at"`
}
