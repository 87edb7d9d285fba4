package domain

import "errors"

// Errores de dominio (sin dependencias externas). Cada uno mapea a un código
// distinguible en la capa HTTP; los fallos de storage no clasificados se
// registran y se colapsan en INTERNAL, nunca se exponen al cliente.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrFirmEmailExists    = errors.New("ya existe una firma con ese email")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Invariantes del motor de facturación y de cuentas.
	ErrEmptyBill        = errors.New("la factura debe tener al menos una línea")
	ErrProductNotInFirm = errors.New("producto no encontrado en la firma")
	ErrSelfDeletion     = errors.New("una cuenta no puede eliminarse a sí misma")
)
