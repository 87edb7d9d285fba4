package billing

import (
	"context"

	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función con un BillRepository atado a una
// transacción. Cabecera y líneas de una factura se escriben como unidad
// atómica: si fn retorna error se hace rollback completo.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(billRepo repository.BillRepository) error) error
}

// BillPDFGenerator renderiza el recibo PDF de una factura.
type BillPDFGenerator interface {
	GenerateBillPDF(ctx context.Context, bill *entity.Bill, firm *entity.Firm, items []*entity.BillItem) ([]byte, error)
}
