package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/firmbill-api/internal/application/auth"
	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/pkg/jwt"
	"github.com/jhoicas/firmbill-api/pkg/logger"
)

// LocalIdentity key de c.Locals para la identidad resuelta de la petición.
const LocalIdentity = "identity"

// IdentityResolver carga la cuenta autoritativa para un claim verificado.
// Lo implementa *auth.AuthUseCase; la interfaz permite fakes en tests.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID, firmID string) (*auth.Identity, error)
}

// Identify parsea el Bearer token si está presente y resuelve la identidad
// contra storage (una sola resolución por petición). No rechaza por tokens
// malos: deja la identidad (o nil) en c.Locals y la puerta de autenticación
// de la cadena de políticas decide. Cualquier token inválido, expirado, de
// cuenta borrada o con firm_id que no coincide equivale a "sin identidad".
// Un fallo de storage al resolver sí corta la petición con 500: no es lo
// mismo "cuenta no existe" que "no pudimos consultarla".
func Identify(jwtSecret string, resolver IdentityResolver, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Next()
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Next()
		}
		userID, firmID, _, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Next()
		}
		// El rol vigente es el de la DB, no el del token.
		identity, err := resolver.Resolve(c.Context(), userID, firmID)
		if err != nil {
			if log != nil {
				log.Error().Err(err).Str("path", c.Path()).Msg("no se pudo resolver la identidad")
			}
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: CodeInternal, Message: "error interno"})
		}
		if identity == nil {
			return c.Next()
		}
		c.Locals(LocalIdentity, identity)
		return c.Next()
	}
}

// GetIdentity devuelve la identidad resuelta del contexto, o nil si la
// petición es anónima.
func GetIdentity(c *fiber.Ctx) *auth.Identity {
	v := c.Locals(LocalIdentity)
	if v == nil {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
