package billing

import (
	"context"

	"github.com/jhoicas/firmbill-api/internal/domain"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
)

// PDFUseCase genera el recibo PDF de una factura (representación imprimible
// para entregar al cliente de la firma).
type PDFUseCase struct {
	billRepo  repository.BillRepository
	firmRepo  repository.FirmRepository
	generator BillPDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(billRepo repository.BillRepository, firmRepo repository.FirmRepository, generator BillPDFGenerator) *PDFUseCase {
	return &PDFUseCase{billRepo: billRepo, firmRepo: firmRepo, generator: generator}
}

// GenerateBillPDF verifica el tenant, junta factura + líneas + firma y
// renderiza el PDF. Devuelve los bytes listos para servir.
func (uc *PDFUseCase) GenerateBillPDF(ctx context.Context, firmID, billID string) ([]byte, error) {
	bill, err := uc.billRepo.GetByID(billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	if bill.FirmID != firmID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.billRepo.GetItemsByBillID(billID)
	if err != nil {
		return nil, err
	}
	firm, err := uc.firmRepo.GetByID(firmID)
	if err != nil {
		return nil, err
	}
	if firm == nil {
		return nil, domain.ErrNotFound
	}
	return uc.generator.GenerateBillPDF(ctx, bill, firm, items)
}
