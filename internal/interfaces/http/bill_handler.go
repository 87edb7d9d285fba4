package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/firmbill-api/internal/application/billing"
	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/internal/metrics"
	"github.com/jhoicas/firmbill-api/pkg/logger"
)

// BillHandler facturación de la firma.
type BillHandler struct {
	uc  *billing.BillUseCase
	pdf *billing.PDFUseCase
	mt  *metrics.Metrics
	log *logger.Logger
}

// NewBillHandler construye el handler de facturación.
func NewBillHandler(uc *billing.BillUseCase, pdf *billing.PDFUseCase, mt *metrics.Metrics, log *logger.Logger) *BillHandler {
	return &BillHandler{uc: uc, pdf: pdf, mt: mt, log: log}
}

// Create godoc
// @Summary      Crear factura con sus líneas
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBillRequest  true  "title, customer, items"
// @Success      201   {object}  dto.BillResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/bills [post]
func (h *BillHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBillRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	identity := GetIdentity(c)
	out, err := h.uc.Create(c.Context(), identity.FirmID, identity.UserID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if h.mt != nil {
		h.mt.BillsCreated.Inc()
	}
	h.log.Info().Str("bill_id", out.ID).Str("firm_id", out.FirmID).Msg("factura creada")
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Reemplazar factura (líneas incluidas)
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "id de la factura"
// @Param        body  body  dto.CreateBillRequest  true  "title, customer, items"
// @Success      200   {object}  dto.BillResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/bills/{id} [put]
func (h *BillHandler) Update(c *fiber.Ctx) error {
	var in dto.CreateBillRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	identity := GetIdentity(c)
	out, err := h.uc.Update(c.Context(), identity.FirmID, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar factura y sus líneas
// @Tags         bills
// @Produce      json
// @Param        id  path  string  true  "id de la factura"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id} [delete]
func (h *BillHandler) Delete(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	if err := h.uc.Delete(c.Context(), identity.FirmID, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener factura con líneas
// @Tags         bills
// @Produce      json
// @Param        id  path  string  true  "id de la factura"
// @Success      200  {object}  dto.BillResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id} [get]
func (h *BillHandler) GetByID(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	out, err := h.uc.Get(c.Context(), identity.FirmID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListFirm godoc
// @Summary      Listar todas las facturas de la firma (solo owner)
// @Tags         bills
// @Produce      json
// @Param        limit   query  int  false  "tamaño de página"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.BillListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/bills [get]
func (h *BillHandler) ListFirm(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	identity := GetIdentity(c)
	out, err := h.uc.ListByFirm(c.Context(), identity.FirmID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListMine godoc
// @Summary      Listar las facturas creadas por el caller
// @Tags         bills
// @Produce      json
// @Param        limit   query  int  false  "tamaño de página"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.BillListResponse
// @Router       /api/bills/mine [get]
func (h *BillHandler) ListMine(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	identity := GetIdentity(c)
	out, err := h.uc.ListByUser(c.Context(), identity.FirmID, identity.UserID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Recibo PDF de la factura
// @Tags         bills
// @Produce      application/pdf
// @Param        id  path  string  true  "id de la factura"
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/pdf [get]
func (h *BillHandler) PDF(c *fiber.Ctx) error {
	identity := GetIdentity(c)
	data, err := h.pdf.GenerateBillPDF(c.Context(), identity.FirmID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="factura.pdf"`)
	return c.Send(data)
}
