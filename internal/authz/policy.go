package authz

import (
	"strings"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
)

// Este pacote centraliza a política de autorização consumida por toda operação
// protegida. A regra é sempre a mesma disjunção:
//
//	permitido-se (é dono do recurso) OU (possui alguma das permissões exigidas)
//
// em vez de reimplementar a verificação em cada serviço.

// RequireAuthenticated falha com UnauthenticatedError se não houver identidade
// na requisição (ator nulo).
func RequireAuthenticated(actor *domain.User) error {
	if actor == nil {
		return apperror.NewUnauthenticatedError("você precisa estar logado para esta operação.")
	}
	return nil
}

// RequirePermission falha com ForbiddenError a menos que o conjunto de
// permissões do ator intersecte os rótulos permitidos. O avaliador é agnóstico
// a posse de recursos: só compara rótulos.
func RequirePermission(actor *domain.User, allowed ...string) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if HasAnyPermission(actor, allowed...) {
		return nil
	}
	return apperror.NewForbiddenError(
		"permissões insuficientes. Necessária uma de: " + strings.Join(allowed, ", "))
}

// Authorize aplica a política completa posse-ou-permissão: o ator precisa ser
// o dono do recurso (ownerID) ou possuir algum dos rótulos permitidos.
// Com allowed vazio, apenas o dono passa.
func Authorize(actor *domain.User, ownerID string, allowed ...string) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.ID == ownerID {
		return nil
	}
	if HasAnyPermission(actor, allowed...) {
		return nil
	}
	return apperror.NewForbiddenError("você não é o dono deste recurso nem possui a permissão necessária.")
}

// HasAnyPermission verifica a interseção entre as permissões do ator e os
// rótulos exigidos.
func HasAnyPermission(actor *domain.User, allowed ...string) bool {
	if actor == nil {
		return false
	}
	for _, label := range allowed {
		for _, held := range actor.Permissions {
			if held == label {
				return true
			}
		}
	}
	return false
}
