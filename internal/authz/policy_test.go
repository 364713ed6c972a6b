package authz_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"goshop/internal/authz"
	"goshop/internal/domain"
	apperror "goshop/internal/errors"
)

// TestRequireAuthenticated testa a distinção anônimo vs. autenticado.
func TestRequireAuthenticated(t *testing.T) {
	err := authz.RequireAuthenticated(nil)
	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthenticatedError{}, err)

	err = authz.RequireAuthenticated(&domain.User{ID: uuid.New().String()})
	assert.NoError(t, err)
}

// TestRequirePermission testa a interseção de rótulos, sem noção de posse.
func TestRequirePermission(t *testing.T) {
	admin := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionAdmin}}
	comum := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionUser}}

	// Basta UM dos rótulos exigidos
	assert.NoError(t, authz.RequirePermission(admin, domain.PermissionAdmin, domain.PermissionPermissionUpdate))

	// Sem interseção: Forbidden (não Unauthenticated)
	err := authz.RequirePermission(comum, domain.PermissionAdmin, domain.PermissionPermissionUpdate)
	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	// Anônimo falha como Unauthenticated antes de avaliar rótulos
	err = authz.RequirePermission(nil, domain.PermissionAdmin)
	assert.IsType(t, &apperror.UnauthenticatedError{}, err)
}

// TestAuthorize testa a disjunção posse-ou-permissão usada pelas operações de
// escrita do catálogo.
func TestAuthorize(t *testing.T) {
	ownerID := uuid.New().String()
	owner := &domain.User{ID: ownerID, Permissions: []string{domain.PermissionUser}}
	moderator := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionItemDelete}}
	stranger := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionUser}}

	// Dono passa sem nenhum rótulo
	assert.NoError(t, authz.Authorize(owner, ownerID, domain.PermissionAdmin, domain.PermissionItemDelete))

	// Não-dono com rótulo da lista passa
	assert.NoError(t, authz.Authorize(moderator, ownerID, domain.PermissionAdmin, domain.PermissionItemDelete))

	// Não-dono sem rótulo: Forbidden
	err := authz.Authorize(stranger, ownerID, domain.PermissionAdmin, domain.PermissionItemDelete)
	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

// TestAuthorize_OwnershipOnly testa a forma sem rótulos permitidos: só o dono
// passa, mesmo ADMIN é recusado (política do carrinho).
func TestAuthorize_OwnershipOnly(t *testing.T) {
	ownerID := uuid.New().String()
	owner := &domain.User{ID: ownerID}
	admin := &domain.User{ID: uuid.New().String(), Permissions: []string{domain.PermissionAdmin}}

	assert.NoError(t, authz.Authorize(owner, ownerID))

	err := authz.Authorize(admin, ownerID)
	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

// TestHasAnyPermission testa o avaliador puro de rótulos.
func TestHasAnyPermission(t *testing.T) {
	user := &domain.User{Permissions: []string{domain.PermissionUser, domain.PermissionItemCreate}}

	assert.True(t, authz.HasAnyPermission(user, domain.PermissionItemCreate))
	assert.True(t, authz.HasAnyPermission(user, domain.PermissionAdmin, domain.PermissionItemCreate))
	assert.False(t, authz.HasAnyPermission(user, domain.PermissionAdmin))
	assert.False(t, authz.HasAnyPermission(user))
	assert.False(t, authz.HasAnyPermission(nil, domain.PermissionAdmin))
}
