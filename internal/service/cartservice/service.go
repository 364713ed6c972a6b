package cartservice

import (
	"context"

	"goshop/internal/authz"
	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// CartRepository define o contrato que este Serviço espera da camada de
// Persistência do carrinho.
type CartRepository interface {
	Upsert(ctx context.Context, userID, itemID string) (domain.CartItem, error)
	FindByID(ctx context.Context, id string) (domain.CartItem, error)
	FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	Delete(ctx context.Context, id string) error
}

// ItemFinder verifica a existência do item no catálogo antes da adição.
type ItemFinder interface {
	FindByID(ctx context.Context, id string) (domain.Item, error)
}

// Service é a camada de lógica de negócio do carrinho.
type Service struct {
	repo   CartRepository
	items  ItemFinder
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Carrinho.
func NewService(repo CartRepository, items ItemFinder, log logger.Logger) *Service {
	return &Service{repo: repo, items: items, logger: log}
}

// AddToCart adiciona um item ao carrinho do ator: cria a linha com quantidade 1
// ou incrementa a existente, em uma única escrita condicional no store.
func (s *Service) AddToCart(ctx context.Context, actor *domain.User, itemID string) (domain.CartItem, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return domain.CartItem{}, err
	}
	if itemID == "" {
		return domain.CartItem{}, apperror.NewValidationError("ID do item é obrigatório.")
	}

	// O item precisa existir no catálogo
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return domain.CartItem{}, err
	}

	line, err := s.repo.Upsert(ctx, actor.ID, itemID)
	if err != nil {
		return domain.CartItem{}, err
	}

	s.logger.Debug("Item adicionado ao carrinho.", map[string]interface{}{
		"user_id":  actor.ID,
		"item_id":  itemID,
		"quantity": line.Quantity,
	})
	return line, nil
}

// RemoveFromCart remove uma linha do carrinho.
// NotFound se a linha não existe; Forbidden se o ator não é o dono.
func (s *Service) RemoveFromCart(ctx context.Context, actor *domain.User, cartItemID string) error {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return err
	}

	line, err := s.repo.FindByID(ctx, cartItemID)
	if err != nil {
		return err
	}

	// Apenas posse: nenhum rótulo de permissão dá acesso ao carrinho alheio.
	if err := authz.Authorize(actor, line.UserID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, cartItemID)
}

// Cart carrega o carrinho do ator com os itens resolvidos (preço/título do
// catálogo do servidor).
func (s *Service) Cart(ctx context.Context, actor *domain.User) ([]domain.CartItem, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.repo.FindByUser(ctx, actor.ID)
}
