package reconrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// ReconciliationRepository persiste cobranças órfãs do checkout: confirmadas
// pelo gateway, mas sem commit local. É o registro do caminho de compensação
// da saga — nunca perdemos uma cobrança em silêncio.
type ReconciliationRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewReconciliationRepository cria uma nova instância do repositório.
func NewReconciliationRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *ReconciliationRepository {
	return &ReconciliationRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save registra uma cobrança pendente de reconciliação.
func (r *ReconciliationRepository) Save(ctx context.Context, entry domain.PaymentReconciliation) (domain.PaymentReconciliation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()

	const insertSQL = `INSERT INTO payment_reconciliations (id, user_id, charge_id, amount, currency, reason, created_at)
                       VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		entry.ID,
		entry.UserID,
		entry.ChargeID,
		entry.Amount,
		entry.Currency,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao registrar reconciliação de cobrança.", err)
		return domain.PaymentReconciliation{}, apperror.NewDBError("failed to insert reconciliation entry", err)
	}

	r.logger.Warn("Cobrança órfã registrada para reconciliação.", map[string]interface{}{
		"charge_id": entry.ChargeID,
		"user_id":   entry.UserID,
		"amount":    entry.Amount,
	})
	return entry, nil
}

// FindPending lista as cobranças ainda pendentes de reconciliação, para o
// processo manual/assíncrono de acerto.
func (r *ReconciliationRepository) FindPending(ctx context.Context) ([]domain.PaymentReconciliation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, user_id, charge_id, amount, currency, reason, created_at
              FROM payment_reconciliations ORDER BY created_at`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		return nil, apperror.NewDBError("failed to list reconciliation entries", err)
	}
	defer rows.Close()

	entries := []domain.PaymentReconciliation{}
	for rows.Next() {
		var e domain.PaymentReconciliation
		if err := rows.Scan(&e.ID, &e.UserID, &e.ChargeID, &e.Amount, &e.Currency, &e.Reason, &e.CreatedAt); err != nil {
			return nil, apperror.NewDBError("failed to scan reconciliation row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate reconciliation rows", err)
	}

	return entries, nil
}
