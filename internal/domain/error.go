package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"403"`
	Category string `json:"category" example:"FORBIDDEN"`
	Message  string `json:"message" example:"Acesso negado: você não é o dono deste recurso."`
}
