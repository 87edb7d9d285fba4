package entity

import "time"

// Roles válidos para User.
const (
	RoleOwner  = "owner"  // gestiona catálogo y cuentas de su firma
	RoleMember = "member" // solo puede crear facturas
)

// ValidRole indica si el rol existe.
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleMember
}

// User representa una cuenta del sistema (pertenece a una Firm).
type User struct {
	ID           string
	FirmID       string
	Email        string // único global
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // owner, member
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
