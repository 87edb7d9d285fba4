package http

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/internal/metrics"
	"github.com/jhoicas/firmbill-api/internal/ratelimit"
	"github.com/jhoicas/firmbill-api/pkg/logger"
)

// RateLimit límite de llamadas por ventana fija para una operación.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Bounds límites de longitud [Min, Max] en caracteres para un argumento string.
type Bounds struct {
	Min int
	Max int
}

// Policy configuración declarativa de las puertas de una operación, adjunta
// en el registro de la ruta. Las puertas no configuradas se omiten; la
// ausencia de Roles significa "cualquier caller autenticado".
type Policy struct {
	// Auth exige identidad resuelta.
	Auth bool
	// Roles rol requerido (implica Auth).
	Roles []string
	// Rate límite por (operación, identidad); los anónimos comparten una key.
	Rate *RateLimit
	// Bounds longitudes por nombre de argumento: route params y campos string
	// de primer nivel del body JSON.
	Bounds map[string]Bounds
}

// Guard construye handlers que ejecutan la cadena de políticas en orden fijo:
// autenticación → rol → rate limit → validación de argumentos. La primera
// puerta que falla corta la cadena con su error clasificado; la validación de
// argumentos corre siempre antes de cualquier acceso a storage del handler.
type Guard struct {
	store *ratelimit.Store
	mt    *metrics.Metrics
	log   *logger.Logger
}

// NewGuard construye el guard con el store de rate limit compartido.
func NewGuard(store *ratelimit.Store, mt *metrics.Metrics, log *logger.Logger) *Guard {
	return &Guard{store: store, mt: mt, log: log}
}

// Protect devuelve el handler de la cadena para una operación. op nombra la
// operación en el store de rate limit y en las métricas.
func (g *Guard) Protect(op string, p Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := GetIdentity(c)

		// 1. Autenticación
		if (p.Auth || len(p.Roles) > 0) && identity == nil {
			g.reject(op, metrics.ReasonUnauthenticated)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code: CodeUnauthenticated, Message: "autenticación requerida",
			})
		}

		// 2. Rol
		if len(p.Roles) > 0 && !hasRole(identity.Role, p.Roles) {
			g.reject(op, metrics.ReasonForbidden)
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:          CodeForbidden,
				Message:       "rol insuficiente para esta operación",
				RequiredRoles: p.Roles,
			})
		}

		// 3. Rate limit
		if p.Rate != nil && p.Rate.Limit > 0 {
			key := ratelimit.AnonymousKey
			if identity != nil {
				key = identity.UserID
			}
			allowed, retryAfter := g.store.Allow(op, key, p.Rate.Limit, p.Rate.Window)
			if !allowed {
				g.reject(op, metrics.ReasonRateLimited)
				secs := int(math.Ceil(retryAfter.Seconds()))
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
					Code:              CodeRateLimited,
					Message:           "demasiadas peticiones, intente más tarde",
					RetryAfterSeconds: secs,
				})
			}
		}

		// 4. Longitud de argumentos
		if len(p.Bounds) > 0 {
			if arg, bound, ok := checkBounds(c, p.Bounds); !ok {
				g.reject(op, metrics.ReasonInvalidArgument)
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
					Code:     CodeInvalidArgument,
					Message:  "argumento '" + arg + "' viola el límite de longitud (" + bound + ")",
					Argument: arg,
					Bound:    bound,
				})
			}
		}

		err := c.Next()
		if g.mt != nil {
			g.mt.Requests.WithLabelValues(op, strconv.Itoa(c.Response().StatusCode())).Inc()
		}
		return err
	}
}

func (g *Guard) reject(op, reason string) {
	if g.mt == nil {
		return
	}
	g.mt.PolicyRejections.WithLabelValues(op, reason).Inc()
	g.mt.Requests.WithLabelValues(op, statusFor(reason)).Inc()
}

func statusFor(reason string) string {
	switch reason {
	case metrics.ReasonUnauthenticated:
		return "401"
	case metrics.ReasonForbidden:
		return "403"
	case metrics.ReasonRateLimited:
		return "429"
	default:
		return "400"
	}
}

func hasRole(role string, required []string) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}

// checkBounds valida longitudes contra route params y campos string de primer
// nivel del body JSON. Un campo ausente cuenta como string vacío, así el Min
// de un argumento requerido lo rechaza aquí, antes del handler. Orden de
// chequeo determinista por nombre.
func checkBounds(c *fiber.Ctx, bounds map[string]Bounds) (arg, bound string, ok bool) {
	names := make([]string, 0, len(bounds))
	for name := range bounds {
		names = append(names, name)
	}
	sort.Strings(names)

	var body map[string]any
	bodyParsed := false

	for _, name := range names {
		b := bounds[name]
		value := c.Params(name)
		if value == "" {
			if !bodyParsed {
				bodyParsed = true
				if raw := c.Body(); len(raw) > 0 {
					_ = json.Unmarshal(raw, &body)
				}
			}
			if s, isStr := body[name].(string); isStr {
				value = s
			}
		}
		// Longitud en caracteres, no en bytes: "ñoño" mide 4.
		n := utf8.RuneCountInString(value)
		if b.Min > 0 && n < b.Min {
			return name, "min", false
		}
		if b.Max > 0 && n > b.Max {
			return name, "max", false
		}
	}
	return "", "", true
}
