package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generator define o contrato de geração de tokens aleatórios.
// A interface existe para que os serviços possam ser testados com um gerador
// determinístico.
type Generator interface {
	Hex(byteLength int) (string, error)
}

// CryptoGenerator gera tokens a partir de crypto/rand (alta entropia).
type CryptoGenerator struct{}

// NewCryptoGenerator cria o gerador padrão de produção.
func NewCryptoGenerator() *CryptoGenerator {
	return &CryptoGenerator{}
}

// Hex retorna byteLength bytes aleatórios codificados em hexadecimal.
func (g *CryptoGenerator) Hex(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("falha ao gerar bytes aleatórios: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
