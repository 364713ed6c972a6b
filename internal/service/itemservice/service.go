package itemservice

import (
	"context"

	"goshop/internal/authz"
	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// ItemRepository define o contrato que este Serviço espera da camada de
// Persistência do catálogo.
type ItemRepository interface {
	Save(ctx context.Context, item domain.Item) (domain.Item, error)
	FindByID(ctx context.Context, id string) (domain.Item, error)
	FindAll(ctx context.Context, page, limit int) ([]domain.Item, error)
	Update(ctx context.Context, item domain.Item) (domain.Item, error)
	Delete(ctx context.Context, id string) error
}

// Service é a camada de lógica de negócio do catálogo de itens.
type Service struct {
	repo   ItemRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Itens.
func NewService(repo ItemRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// CreateItem cria um item no catálogo. Exige autenticação; o ator vira o dono.
func (s *Service) CreateItem(ctx context.Context, actor *domain.User, item domain.Item) (domain.Item, error) {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return domain.Item{}, err
	}

	if item.Title == "" {
		return domain.Item{}, apperror.NewValidationError("O título do item é obrigatório.")
	}
	if item.Price <= 0 {
		return domain.Item{}, apperror.NewValidationError("O preço do item deve ser positivo (em centavos).")
	}

	item.UserID = actor.ID
	return s.repo.Save(ctx, item)
}

// GetItem busca um item do catálogo. Leitura pública.
func (s *Service) GetItem(ctx context.Context, id string) (domain.Item, error) {
	if id == "" {
		return domain.Item{}, apperror.NewValidationError("ID do item é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// ListItems lista o catálogo. Leitura pública.
func (s *Service) ListItems(ctx context.Context, page, limit int) ([]domain.Item, error) {
	return s.repo.FindAll(ctx, page, limit)
}

// UpdateItem aplica mudanças parciais a um item.
// Política: dono do item OU {ADMIN, ITEMUPDATE}.
func (s *Service) UpdateItem(ctx context.Context, actor *domain.User, id string, update domain.ItemUpdate) (domain.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Item{}, err
	}

	if err := authz.Authorize(actor, item.UserID, domain.PermissionAdmin, domain.PermissionItemUpdate); err != nil {
		return domain.Item{}, err
	}

	if update.Title != nil {
		item.Title = *update.Title
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.Image != nil {
		item.Image = *update.Image
	}
	if update.Price != nil {
		if *update.Price <= 0 {
			return domain.Item{}, apperror.NewValidationError("O preço do item deve ser positivo (em centavos).")
		}
		item.Price = *update.Price
	}

	return s.repo.Update(ctx, item)
}

// DeleteItem remove um item do catálogo.
// Política: dono do item OU {ADMIN, ITEMDELETE}.
func (s *Service) DeleteItem(ctx context.Context, actor *domain.User, id string) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authz.Authorize(actor, item.UserID, domain.PermissionAdmin, domain.PermissionItemDelete); err != nil {
		return err
	}

	s.logger.Info("Item sendo removido do catálogo.", map[string]interface{}{
		"item_id": id,
		"user_id": actor.ID,
	})
	return s.repo.Delete(ctx, id)
}
