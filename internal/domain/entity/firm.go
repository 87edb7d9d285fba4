package entity

import "time"

// Firm representa una organización/tenant del sistema. Es la raíz del
// aislamiento: toda otra entidad pertenece exactamente a una firma.
type Firm struct {
	ID        string
	Name      string
	Email     string // único global; identifica a la firma en el registro
	Address   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
