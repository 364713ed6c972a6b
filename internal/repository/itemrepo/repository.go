package itemrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/cache"
	"goshop/internal/pkg/logger"
)

// Define a chave de cache para itens do catálogo.
const itemCacheKey = "item:%s"

// TTL do cache de item (estratégia Cache-Aside).
const itemCacheTTL = 5 * time.Minute

// ItemRepository é a camada de persistência da entidade Item.
// O catálogo é o caminho de leitura mais quente do sistema, por isso o
// FindByID usa Cache-Aside sobre o Redis.
type ItemRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewItemRepository cria e retorna uma nova instância do Repositório de Itens.
func NewItemRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *ItemRepository {
	return &ItemRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const itemColumns = `id, title, description, image, price, user_id, created_at, updated_at`

// Save persiste um novo item no catálogo.
func (r *ItemRepository) Save(ctx context.Context, item domain.Item) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	item.ID = uuid.NewString()
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	const insertSQL = `INSERT INTO items (id, title, description, image, price, user_id, created_at, updated_at)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		item.ID,
		item.Title,
		item.Description,
		item.Image,
		item.Price,
		item.UserID,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir item no DB.", err)
		return domain.Item{}, apperror.NewDBError("failed to insert item", err)
	}

	r.logger.Info("Item salvo no repositório.", map[string]interface{}{"item_id": item.ID, "title": item.Title})
	return item, nil
}

// FindByID busca um item pelo ID, utilizando a estratégia Cache-Aside.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(itemCacheKey, id)
	var item domain.Item

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &item) == nil {
			// Cache HIT
			return item, nil
		}
		// Se a desserialização falhar, seguimos para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (e.g., conexão perdida): logamos e seguimos.
		r.logger.Warn("Falha ao ler item do cache; consultando o DB.", map[string]interface{}{"item_id": id})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	row := r.DB.QueryRowContext(ctxTimeout, query, id)

	err = row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Image,
		&item.Price,
		&item.UserID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, apperror.NewNotFoundError(fmt.Sprintf("Item com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar item no DB.", err)
		return domain.Item{}, apperror.NewDBError("failed to find item", err)
	}

	// 3. Popular o cache para futuras requisições
	if itemJSON, marshalErr := json.Marshal(item); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, itemJSON, itemCacheTTL)
	}

	return item, nil
}

// FindAll lista itens do catálogo com paginação simples.
func (r *ItemRepository) FindAll(ctx context.Context, page, limit int) ([]domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctxTimeout, query, limit, (page-1)*limit)
	if err != nil {
		r.logger.Error("Falha ao listar itens no DB.", err)
		return nil, apperror.NewDBError("failed to list items", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Image,
			&item.Price,
			&item.UserID,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, apperror.NewDBError("failed to scan item row", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate item rows", err)
	}

	return items, nil
}

// Update aplica as mudanças de um item e invalida a entrada de cache.
func (r *ItemRepository) Update(ctx context.Context, item domain.Item) (domain.Item, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE items SET title = $1, description = $2, image = $3, price = $4, updated_at = $5
              WHERE id = $6
              RETURNING ` + itemColumns

	var updated domain.Item
	err := r.DB.QueryRowContext(ctxTimeout, query,
		item.Title, item.Description, item.Image, item.Price, time.Now(), item.ID,
	).Scan(
		&updated.ID,
		&updated.Title,
		&updated.Description,
		&updated.Image,
		&updated.Price,
		&updated.UserID,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, apperror.NewNotFoundError(fmt.Sprintf("Item com ID %s não existe na base de dados.", item.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar item no DB.", err)
		return domain.Item{}, apperror.NewDBError("failed to update item", err)
	}

	// Invalida o cache: a próxima leitura repopula com o valor novo.
	r.Cache.Delete(ctxTimeout, fmt.Sprintf(itemCacheKey, item.ID))

	return updated, nil
}

// Delete remove um item do catálogo e invalida a entrada de cache.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar item no DB.", err)
		return apperror.NewDBError("failed to delete item", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Item com ID %s não existe na base de dados.", id))
	}

	r.Cache.Delete(ctxTimeout, fmt.Sprintf(itemCacheKey, id))
	r.logger.Info("Item removido do catálogo.", map[string]interface{}{"item_id": id})
	return nil
}
