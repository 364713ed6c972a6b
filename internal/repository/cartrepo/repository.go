package cartrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// CartRepository é a camada de persistência das linhas de carrinho.
type CartRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCartRepository cria e retorna uma nova instância do Repositório de Carrinho.
func NewCartRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CartRepository {
	return &CartRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Upsert adiciona um item ao carrinho do usuário em uma única escrita
// condicional: cria a linha com quantidade 1 ou incrementa a existente.
//
// A unicidade por (user_id, item_id) é garantida pela constraint do banco +
// ON CONFLICT, nunca por check-then-act em memória — duas adições concorrentes
// do mesmo item jamais produzem duas linhas.
func (r *CartRepository) Upsert(ctx context.Context, userID, itemID string) (domain.CartItem, error) {
	r.logger.Debug("Upsert de linha de carrinho.", map[string]interface{}{"user_id": userID, "item_id": itemID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now()
	query := `
        INSERT INTO cart_items (id, user_id, item_id, quantity, created_at, updated_at)
        VALUES ($1, $2, $3, 1, $4, $4)
        ON CONFLICT (user_id, item_id)
        DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = $4
        RETURNING id, user_id, item_id, quantity, created_at, updated_at`

	var line domain.CartItem
	err := r.DB.QueryRowContext(ctxTimeout, query, uuid.NewString(), userID, itemID, now).Scan(
		&line.ID,
		&line.UserID,
		&line.ItemID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha no upsert da linha de carrinho.", err)
		return domain.CartItem{}, apperror.NewDBError("failed to upsert cart line", err)
	}

	return line, nil
}

// FindByID busca uma linha de carrinho pelo identificador.
func (r *CartRepository) FindByID(ctx context.Context, id string) (domain.CartItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, user_id, item_id, quantity, created_at, updated_at
              FROM cart_items WHERE id = $1`

	var line domain.CartItem
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&line.ID,
		&line.UserID,
		&line.ItemID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartItem{}, apperror.NewNotFoundError(fmt.Sprintf("Linha de carrinho %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar linha de carrinho no DB.", err)
		return domain.CartItem{}, apperror.NewDBError("failed to find cart line", err)
	}

	return line, nil
}

// FindByUser carrega o carrinho do usuário com os itens resolvidos via JOIN:
// preço e título vêm sempre do catálogo do servidor, nunca do cliente.
func (r *CartRepository) FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT c.id, c.user_id, c.item_id, c.quantity, c.created_at, c.updated_at,
               i.id, i.title, i.description, i.image, i.price, i.user_id, i.created_at, i.updated_at
        FROM cart_items c
        JOIN items i ON i.id = c.item_id
        WHERE c.user_id = $1
        ORDER BY c.created_at`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao carregar carrinho no DB.", err)
		return nil, apperror.NewDBError("failed to load cart", err)
	}
	defer rows.Close()

	lines := []domain.CartItem{}
	for rows.Next() {
		var line domain.CartItem
		var item domain.Item
		if err := rows.Scan(
			&line.ID, &line.UserID, &line.ItemID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
			&item.ID, &item.Title, &item.Description, &item.Image, &item.Price, &item.UserID, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, apperror.NewDBError("failed to scan cart row", err)
		}
		line.Item = &item
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate cart rows", err)
	}

	return lines, nil
}

// Delete remove uma linha de carrinho.
// A checagem de posse é feita no serviço antes da remoção.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar linha de carrinho no DB.", err)
		return apperror.NewDBError("failed to delete cart line", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Linha de carrinho %s não encontrada.", id))
	}

	r.logger.Info("Linha de carrinho removida.", map[string]interface{}{"cart_item_id": id})
	return nil
}
