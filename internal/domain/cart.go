package domain

import "time"

// CartItem representa uma linha do carrinho de um usuário.
// Invariante: no máximo uma linha por par (user_id, item_id), garantida por
// constraint de unicidade no store e escrita no estilo upsert — nunca por
// check-then-act em memória (o sistema é replicado horizontalmente).
type CartItem struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`

	// Item resolvido (preço/título autoritativos do servidor), preenchido
	// nas leituras com JOIN. Nunca vem do cliente.
	Item *Item `json:"item,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
