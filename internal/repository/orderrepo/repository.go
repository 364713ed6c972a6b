package orderrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// OrderRepository é a camada de persistência de pedidos.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Commit grava o pedido, seu snapshot de itens e esvazia o carrinho do usuário
// em UMA transação: o carrinho nunca fica não-vazio com pedido gravado, nem o
// pedido é gravado se a limpeza do carrinho não puder completar.
//
// Este é o commit local da saga de checkout — o chamador só o invoca depois da
// confirmação da cobrança pelo gateway.
func (r *OrderRepository) Commit(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.logger.Debug("Iniciando commit local do pedido.", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.Total,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Order{}, apperror.NewDBError("failed to start tx", err)
	}
	defer tx.Rollback() // Rollback em caso de erro; no-op após Commit

	const orderSQL = `INSERT INTO orders (id, user_id, total, charge, created_at)
                      VALUES ($1, $2, $3, $4, $5)`

	_, err = tx.ExecContext(ctxTimeout, orderSQL,
		order.ID,
		order.UserID,
		order.Total,
		order.Charge,
		order.CreatedAt,
	)
	if err != nil {
		return domain.Order{}, apperror.NewDBError("failed to insert order", err)
	}

	const itemSQL = `INSERT INTO order_items (id, order_id, item_id, title, image, price, quantity)
                     VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, oi := range order.Items {
		_, err = tx.ExecContext(ctxTimeout, itemSQL,
			oi.ID,
			oi.OrderID,
			oi.ItemID,
			oi.Title,
			oi.Image,
			oi.Price,
			oi.Quantity,
		)
		if err != nil {
			return domain.Order{}, apperror.NewDBError("failed to insert order items", err)
		}
	}

	// Limpeza do carrinho na MESMA transação do pedido.
	if _, err = tx.ExecContext(ctxTimeout, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
		return domain.Order{}, apperror.NewDBError("failed to clear cart", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, apperror.NewDBError("failed to commit tx", err)
	}

	r.logger.Info("Pedido gravado e carrinho esvaziado.", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"charge":   order.Charge,
	})
	return order, nil
}

// FindByID busca um pedido com seu snapshot de itens.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, user_id, total, charge, created_at FROM orders WHERE id = $1`

	var order domain.Order
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Total,
		&order.Charge,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, apperror.NewDBError("failed to find order", err)
	}

	items, err := r.findItems(ctxTimeout, id)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

// FindByUser lista os pedidos de um usuário, com snapshots de itens.
func (r *OrderRepository) FindByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, user_id, total, charge, created_at FROM orders
              WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos no DB.", err)
		return nil, apperror.NewDBError("failed to list orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Charge, &order.CreatedAt); err != nil {
			return nil, apperror.NewDBError("failed to scan order row", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate order rows", err)
	}

	for i := range orders {
		items, err := r.findItems(ctxTimeout, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// findItems carrega o snapshot de itens de um pedido.
func (r *OrderRepository) findItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	query := `SELECT id, order_id, item_id, title, image, price, quantity
              FROM order_items WHERE order_id = $1`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperror.NewDBError("failed to load order items", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var oi domain.OrderItem
		if err := rows.Scan(&oi.ID, &oi.OrderID, &oi.ItemID, &oi.Title, &oi.Image, &oi.Price, &oi.Quantity); err != nil {
			return nil, apperror.NewDBError("failed to scan order item row", err)
		}
		items = append(items, oi)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate order item rows", err)
	}

	return items, nil
}
