package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// uniqueViolation é o código do PostgreSQL para violação de constraint única
// (e.g., e-mail duplicado no signup).
const uniqueViolation = "23505"

// UserRepository é a camada de persistência da entidade User.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const userColumns = `id, email, password_hash, permissions, reset_token, reset_token_expiry, created_at, updated_at`

// scanUser mapeia uma linha da tabela users para a struct domain.User.
func scanUser(row *sql.Row) (domain.User, error) {
	var user domain.User
	var resetToken sql.NullString
	var resetExpiry sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		pq.Array(&user.Permissions),
		&resetToken,
		&resetExpiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	// Os dois campos de reset andam juntos: ambos presentes ou ambos ausentes.
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}
	if resetExpiry.Valid {
		user.ResetTokenExpiry = &resetExpiry.Time
	}
	return user, nil
}

// Save insere um novo usuário no banco de dados.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	const insertSQL = `INSERT INTO users (id, email, password_hash, permissions, created_at, updated_at)
                       VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(
		ctxTimeout,
		insertSQL,
		user.ID,
		user.Email,
		user.PasswordHash,
		pq.Array(user.Permissions),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// Violação de unicidade (e-mail já cadastrado) vira Conflito (409)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			r.logger.Info("Tentativa de cadastro com e-mail duplicado.", map[string]interface{}{"email": user.Email})
			return domain.User{}, apperror.NewConflictError(fmt.Sprintf("O email '%s' já está em uso.", user.Email))
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to insert user", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Usuário não encontrado no DB por email.", map[string]interface{}{"email": email})
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com email '%s' não encontrado", email))
		}
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by email", err)
	}

	return user, nil
}

// FindByID busca um usuário pelo identificador.
// Usado pelo middleware de sessão a cada requisição autenticada.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado", id))
		}
		r.logger.Error("Falha ao buscar usuário por ID no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by id", err)
	}

	return user, nil
}

// FindAll retorna todos os usuários (operação restrita a ADMIN/PERMISSIONUPDATE
// na camada de serviço).
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, email, password_hash, permissions, created_at, updated_at
              FROM users ORDER BY created_at`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar usuários no DB.", err)
		return nil, apperror.NewDBError("failed to list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			pq.Array(&user.Permissions),
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			r.logger.Error("Falha ao mapear usuário na listagem.", err)
			return nil, apperror.NewDBError("failed to scan user row", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("failed to iterate user rows", err)
	}

	return users, nil
}

// UpdatePermissions substitui o conjunto de permissões de um usuário.
func (r *UserRepository) UpdatePermissions(ctx context.Context, id string, permissions []string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE users SET permissions = $1, updated_at = $2 WHERE id = $3
              RETURNING ` + userColumns

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, pq.Array(permissions), time.Now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado", id))
		}
		r.logger.Error("Falha ao atualizar permissões no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to update permissions", err)
	}

	r.logger.Info("Permissões atualizadas.", map[string]interface{}{"user_id": id, "permissions": permissions})
	return user, nil
}

// SetResetToken grava o par (token, expiração) do fluxo de reset de senha,
// transicionando o usuário para o estado de reset pendente.
func (r *UserRepository) SetResetToken(ctx context.Context, id, resetToken string, expiry time.Time) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE users SET reset_token = $1, reset_token_expiry = $2, updated_at = $3 WHERE id = $4`

	result, err := r.DB.ExecContext(ctxTimeout, query, resetToken, expiry, time.Now(), id)
	if err != nil {
		r.logger.Error("Falha ao gravar token de reset no DB.", err)
		return apperror.NewDBError("failed to set reset token", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado", id))
	}
	return nil
}

// FindByResetToken busca o usuário cujo token de reset é o informado.
// A expiração é avaliada na camada de serviço, contra o relógio da operação.
func (r *UserRepository) FindByResetToken(ctx context.Context, resetToken string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, resetToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError("token de reset não encontrado")
		}
		r.logger.Error("Falha ao buscar usuário por token de reset no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to find user by reset token", err)
	}

	return user, nil
}

// UpdatePasswordClearReset troca a senha e limpa os dois campos de reset em um
// único UPDATE condicionado a haver reset pendente: o token é single-use porque
// a escrita que o consome é atômica com a troca de senha — uma segunda tentativa
// concorrente não encontra linha e falha.
func (r *UserRepository) UpdatePasswordClearReset(ctx context.Context, id, passwordHash string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE users
              SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = $2
              WHERE id = $3 AND reset_token IS NOT NULL
              RETURNING ` + userColumns

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, passwordHash, time.Now(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado", id))
		}
		r.logger.Error("Falha ao trocar senha no DB.", err)
		return domain.User{}, apperror.NewDBError("failed to update password", err)
	}

	r.logger.Info("Senha trocada e token de reset consumido.", map[string]interface{}{"user_id": id})
	return user, nil
}
