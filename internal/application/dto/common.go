package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Code es un tag asertable por clientes y
// tests: UNAUTHENTICATED, FORBIDDEN, RATE_LIMITED, INVALID_ARGUMENT,
// NOT_FOUND, CONFLICT, INVARIANT, INTERNAL.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// RequiredRoles solo en fallos de rol (FORBIDDEN).
	RequiredRoles []string `json:"required_roles,omitempty"`
	// RetryAfterSeconds solo en RATE_LIMITED.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"`
	// Argument y Bound solo en INVALID_ARGUMENT por longitud.
	Argument string `json:"argument,omitempty"`
	Bound    string `json:"bound,omitempty"` // "min" | "max"
}
