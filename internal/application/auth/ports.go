package auth

import (
	"context"

	"github.com/jhoicas/firmbill-api/internal/domain/repository"
)

// SignupTxRunner ejecuta el alta de firma + owner dentro de una transacción:
// o se escriben ambas filas o ninguna.
type SignupTxRunner interface {
	RunSignup(ctx context.Context, fn func(
		firmRepo repository.FirmRepository,
		userRepo repository.UserRepository,
	) error) error
}
