package domain

import "time"

// Item representa um produto do catálogo.
// O preço é sempre em unidades mínimas da moeda (centavos, inteiro):
// nada de ponto flutuante em valores monetários.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Price       int       `json:"price"`
	UserID      string    `json:"user_id"` // dono (criador) do item
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemUpdate representa o payload de atualização parcial de um item.
// Ponteiros nulos indicam "manter o valor atual".
type ItemUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Price       *int    `json:"price"`
}
