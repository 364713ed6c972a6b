package userservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"goshop/internal/authz"
	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/email"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/random"
)

// Entropia mínima do token de reset: 20 bytes aleatórios, hex-encoded.
const resetTokenBytes = 20

// UserRepository define o contrato que este Serviço espera da camada de
// Persistência de usuários.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	UpdatePermissions(ctx context.Context, id string, permissions []string) (domain.User, error)
	SetResetToken(ctx context.Context, id, resetToken string, expiry time.Time) error
	FindByResetToken(ctx context.Context, resetToken string) (domain.User, error)
	UpdatePasswordClearReset(ctx context.Context, id, passwordHash string) (domain.User, error)
}

// TokenService é o contrato da camada de sessão (internal/pkg/token).
type TokenService interface {
	Generate(userID string) (string, error)
}

// Service é a camada de lógica de negócio de identidade: signup, signin,
// permissões e o fluxo de reset de senha.
type Service struct {
	repo        UserRepository
	tokenSvc    TokenService
	mailer      email.Sender
	random      random.Generator
	resetTTL    time.Duration
	frontendURL string
	logger      logger.Logger
}

// NewService cria uma nova instância do UserService.
func NewService(
	repo UserRepository,
	tokenSvc TokenService,
	mailer email.Sender,
	gen random.Generator,
	resetTTL time.Duration,
	frontendURL string,
	log logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		tokenSvc:    tokenSvc,
		mailer:      mailer,
		random:      gen,
		resetTTL:    resetTTL,
		frontendURL: frontendURL,
		logger:      log,
	}
}

// Signup registra um novo usuário e emite a sessão inicial.
// Retorna o usuário criado e o token de sessão a ser anexado à resposta.
func (s *Service) Signup(ctx context.Context, creds domain.Credentials) (domain.User, string, error) {
	// 1. Validação básica
	emailAddr := strings.ToLower(strings.TrimSpace(creds.Email))
	if emailAddr == "" || creds.Password == "" {
		return domain.User{}, "", apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	// 2. Hashing da senha (one-way; nunca armazenamos texto puro)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, "", apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Criação do usuário com o conjunto padrão de permissões
	newUser := domain.User{
		Email:        emailAddr,
		PasswordHash: string(hashedPassword),
		Permissions:  []string{domain.PermissionUser},
	}

	user, err := s.repo.Save(ctx, newUser)
	if err != nil {
		// ConflictError (e-mail duplicado) e erros de DB já vêm tipados do repo
		return domain.User{}, "", err
	}

	// 4. Emissão da sessão inicial
	tokenString, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", apperror.NewInternalError("Falha ao gerar token de sessão.", err)
	}

	s.logger.Info("Novo usuário registrado.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, tokenString, nil
}

// Signin autentica um usuário, verifica a senha e emite a sessão.
func (s *Service) Signin(ctx context.Context, emailAddr, password string) (domain.User, string, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" || password == "" {
		return domain.User{}, "", apperror.NewValidationError("Email e senha são obrigatórios.")
	}

	// 1. Buscar usuário pelo e-mail.
	// NotFound vira InvalidCredentials: mesma resposta para e-mail inexistente
	// e senha errada.
	user, err := s.repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if _, ok := err.(*apperror.NotFoundError); ok {
			return domain.User{}, "", apperror.NewInvalidCredentialsError()
		}
		return domain.User{}, "", err
	}

	// 2. Comparar a senha informada com o hash salvo
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", apperror.NewInvalidCredentialsError()
	}

	// 3. Emitir a sessão
	tokenString, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return domain.User{}, "", apperror.NewInternalError("Falha ao gerar token de sessão.", err)
	}

	return user, tokenString, nil
}

// Users lista todos os usuários. Restrita a ADMIN/PERMISSIONUPDATE.
func (s *Service) Users(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := authz.RequirePermission(actor, domain.PermissionAdmin, domain.PermissionPermissionUpdate); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx)
}

// UpdatePermissions substitui o conjunto de permissões de um usuário alvo.
// Exige ADMIN ou PERMISSIONUPDATE; os rótulos são validados contra o conjunto
// conhecido.
func (s *Service) UpdatePermissions(ctx context.Context, actor *domain.User, targetID string, permissions []string) (domain.User, error) {
	if err := authz.RequirePermission(actor, domain.PermissionAdmin, domain.PermissionPermissionUpdate); err != nil {
		return domain.User{}, err
	}

	if len(permissions) == 0 {
		return domain.User{}, apperror.NewValidationError("O conjunto de permissões não pode ser vazio.")
	}
	for _, label := range permissions {
		if !isKnownPermission(label) {
			return domain.User{}, apperror.NewValidationError(fmt.Sprintf("Permissão desconhecida: %s", label))
		}
	}

	return s.repo.UpdatePermissions(ctx, targetID, permissions)
}

// RequestReset inicia o fluxo de reset de senha: gera um token aleatório de
// alta entropia, grava o par (token, expiração) e dispara o e-mail com o link.
//
// Nota: usuário inexistente retorna NotFound, o que revela se o e-mail está
// cadastrado. Resistência à enumeração é decisão pendente de produto.
func (s *Service) RequestReset(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" {
		return apperror.NewValidationError("Email é obrigatório.")
	}

	// 1. Usuário precisa existir
	user, err := s.repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	// 2. Token aleatório + expiração fixa (TTL de 1 hora por padrão)
	resetToken, err := s.random.Hex(resetTokenBytes)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar token de reset.", err)
	}
	expiry := time.Now().Add(s.resetTTL)

	// 3. Persistir o par (token, expiração) — transição para reset pendente
	if err := s.repo.SetResetToken(ctx, user.ID, resetToken, expiry); err != nil {
		return err
	}

	// 4. Disparar a notificação com o link de reset.
	// O token nunca é retornado na resposta da operação, apenas por e-mail.
	body := fmt.Sprintf(
		"Seu token de reset de senha está aqui!\n\n%s/reset?resetToken=%s\n\nO link expira em %s.",
		s.frontendURL, resetToken, s.resetTTL,
	)
	if err := s.mailer.Send(user.Email, "Seu link de reset de senha", body); err != nil {
		s.logger.Error("Falha ao enviar e-mail de reset.", err)
		return apperror.NewInternalError("Falha ao enviar o e-mail de reset.", err)
	}

	s.logger.Info("Reset de senha solicitado.", map[string]interface{}{"user_id": user.ID})
	return nil
}

// ResetPassword consome um token de reset válido e não expirado, troca a senha
// e emite uma sessão nova.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) (domain.User, string, error) {
	// 1. As senhas precisam coincidir
	if newPassword == "" || newPassword != confirmPassword {
		return domain.User{}, "", apperror.NewPasswordMismatchError()
	}

	// 2. O token precisa existir...
	user, err := s.repo.FindByResetToken(ctx, resetToken)
	if err != nil {
		if _, ok := err.(*apperror.NotFoundError); ok {
			return domain.User{}, "", apperror.NewInvalidResetTokenError()
		}
		return domain.User{}, "", err
	}

	// 3. ...e estar dentro da janela de validade.
	// Tentativa com token expirado NÃO consome o token: só o UPDATE de sucesso
	// limpa os campos de reset.
	if user.ResetTokenExpiry == nil || user.ResetTokenExpiry.Before(time.Now()) {
		return domain.User{}, "", apperror.NewInvalidResetTokenError()
	}

	// 4. Hash da nova senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, "", apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 5. Troca de senha + limpeza dos campos de reset em uma única escrita
	updated, err := s.repo.UpdatePasswordClearReset(ctx, user.ID, string(hashedPassword))
	if err != nil {
		if _, ok := err.(*apperror.NotFoundError); ok {
			// O token foi consumido por uma tentativa concorrente
			return domain.User{}, "", apperror.NewInvalidResetTokenError()
		}
		return domain.User{}, "", err
	}

	// 6. Sessão nova para o usuário já autenticado
	tokenString, err := s.tokenSvc.Generate(updated.ID)
	if err != nil {
		return domain.User{}, "", apperror.NewInternalError("Falha ao gerar token de sessão.", err)
	}

	return updated, tokenString, nil
}

// isKnownPermission verifica se o rótulo pertence ao conjunto conhecido.
func isKnownPermission(label string) bool {
	for _, known := range domain.AllPermissions {
		if label == known {
			return true
		}
	}
	return false
}
