package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/firmbill-api/internal/application/auth"
	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/pkg/logger"
)

// AuthHandler maneja alta de firma, login e identidad actual.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// SignUpFirm godoc
// @Summary      Registrar firma y su primer owner
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SignUpFirmRequest  true  "datos de la firma y del owner"
// @Success      201   {object}  dto.AuthResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) SignUpFirm(c *fiber.Ctx) error {
	var in dto.SignUpFirmRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.FirmEmail == "" || in.OwnerEmail == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidArgument, Message: "firm_email y owner_email son requeridos"})
	}
	out, err := h.uc.SignUpFirm(c.Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.log.Info().Str("firm_id", out.Firm.ID).Msg("firma registrada")
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.AuthResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Email == "" || in.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidArgument, Message: "email y password son requeridos"})
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Cuenta actual
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	out, err := h.uc.Me(c.Context(), identity.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
