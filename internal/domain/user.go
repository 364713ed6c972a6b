package domain

import "time"

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"` // sempre armazenado em minúsculas; único
	PasswordHash string   `json:"-"`     // Oculta o hash da senha no JSON de resposta
	Permissions  []string `json:"permissions"`

	// Campos do fluxo de reset de senha. Ou ambos presentes (reset pendente)
	// ou ambos ausentes; o UPDATE de sucesso limpa os dois de uma vez.
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rótulos de permissão (capacidades nomeadas, mantidas em conjunto por usuário)
const (
	PermissionAdmin            = "ADMIN"
	PermissionUser             = "USER"
	PermissionItemCreate       = "ITEMCREATE"
	PermissionItemUpdate       = "ITEMUPDATE"
	PermissionItemDelete       = "ITEMDELETE"
	PermissionPermissionUpdate = "PERMISSIONUPDATE"
)

// AllPermissions lista os rótulos válidos, usada na validação de updatePermissions.
var AllPermissions = []string{
	PermissionAdmin,
	PermissionUser,
	PermissionItemCreate,
	PermissionItemUpdate,
	PermissionItemDelete,
	PermissionPermissionUpdate,
}

// Credentials representa o payload de entrada para signup e signin.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
