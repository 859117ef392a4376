package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleVendedor = "vendedor"
)

// Estados de User.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, vendedor
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole indica si el rol es conocido.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleVendedor
}

// Actor identifica a quien ejecuta una operación (tomado de los claims del JWT).
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin indica si el actor tiene rol admin.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
