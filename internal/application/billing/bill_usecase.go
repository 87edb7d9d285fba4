package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/firmbill-api/internal/application/dto"
	"github.com/jhoicas/firmbill-api/internal/domain"
	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
)

// BillUseCase motor de facturación: valida y computa totales fuera de la
// transacción y persiste cabecera + líneas como unidad atómica. Una línea
// puede referenciar el catálogo (precio y nombre se copian como snapshot) o
// ser ad-hoc (trae su propio nombre y precio).
type BillUseCase struct {
	txRunner    BillingTxRunner
	billRepo    repository.BillRepository
	productRepo repository.ProductRepository
}

// NewBillUseCase construye el caso de uso.
func NewBillUseCase(txRunner BillingTxRunner, billRepo repository.BillRepository, productRepo repository.ProductRepository) *BillUseCase {
	return &BillUseCase{txRunner: txRunner, billRepo: billRepo, productRepo: productRepo}
}

// buildItems valida las líneas solicitadas y materializa las entidades con
// snapshot de nombre/precio y totales calculados. Todo o nada: cualquier
// referencia de catálogo que no resuelva dentro de la firma rechaza la
// operación completa. Se ejecuta ANTES de abrir la transacción.
func (uc *BillUseCase) buildItems(firmID, billID string, in []dto.BillItemRequest) ([]*entity.BillItem, decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, decimal.Zero, domain.ErrEmptyBill
	}
	items := make([]*entity.BillItem, 0, len(in))
	total := decimal.Zero
	for i := range in {
		req := &in[i]
		if req.Quantity <= 0 {
			return nil, decimal.Zero, domain.ErrInvalidInput
		}
		var name string
		var unitPrice decimal.Decimal
		var productID string
		if req.ProductID != "" {
			// Línea de catálogo: el producto debe existir en la firma del caller.
			product, err := uc.productRepo.GetByID(req.ProductID)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if product == nil || product.FirmID != firmID {
				return nil, decimal.Zero, domain.ErrProductNotInFirm
			}
			productID = product.ID
			name = product.Name
			unitPrice = product.Price
		} else {
			// Línea ad-hoc: nombre no vacío y precio estrictamente positivo.
			if strings.TrimSpace(req.ProductName) == "" || !req.UnitPrice.GreaterThan(decimal.Zero) {
				return nil, decimal.Zero, domain.ErrInvalidInput
			}
			name = req.ProductName
			unitPrice = req.UnitPrice
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(req.Quantity))
		items = append(items, &entity.BillItem{
			ID:          uuid.New().String(),
			BillID:      billID,
			ProductID:   productID,
			ProductName: name,
			UnitPrice:   unitPrice,
			Quantity:    req.Quantity,
			Total:       lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return items, total, nil
}

// Create crea una factura con sus líneas. Validación completa primero;
// después cabecera + líneas en una sola transacción.
func (uc *BillUseCase) Create(ctx context.Context, firmID, userID string, in dto.CreateBillRequest) (*dto.BillResponse, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.ErrInvalidInput
	}
	billID := uuid.New().String()
	items, total, err := uc.buildItems(firmID, billID, in.Items)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	bill := &entity.Bill{
		ID:            billID,
		FirmID:        firmID,
		UserID:        userID,
		Title:         in.Title,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		TotalAmount:   total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = uc.txRunner.RunBilling(ctx, func(billRepo repository.BillRepository) error {
		if err := billRepo.Create(bill); err != nil {
			return err
		}
		for _, item := range items {
			if err := billRepo.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toBillResponse(bill, items), nil
}

// Update reemplaza la factura completa: misma validación que Create y, dentro
// de la transacción, delete-then-insert de todas las líneas para que nunca
// sobreviva una línea vieja a un update parcial.
func (uc *BillUseCase) Update(ctx context.Context, firmID, id string, in dto.CreateBillRequest) (*dto.BillResponse, error) {
	bill, err := uc.billRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	if bill.FirmID != firmID {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.ErrInvalidInput
	}
	items, total, err := uc.buildItems(firmID, bill.ID, in.Items)
	if err != nil {
		return nil, err
	}
	bill.Title = in.Title
	bill.CustomerName = in.CustomerName
	bill.CustomerPhone = in.CustomerPhone
	bill.TotalAmount = total
	bill.UpdatedAt = time.Now()

	err = uc.txRunner.RunBilling(ctx, func(billRepo repository.BillRepository) error {
		if err := billRepo.DeleteItemsByBillID(bill.ID); err != nil {
			return err
		}
		if err := billRepo.Update(bill); err != nil {
			return err
		}
		for _, item := range items {
			if err := billRepo.CreateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toBillResponse(bill, items), nil
}

// Delete elimina factura y líneas atómicamente, verificando el tenant antes.
func (uc *BillUseCase) Delete(ctx context.Context, firmID, id string) error {
	bill, err := uc.billRepo.GetByID(id)
	if err != nil {
		return err
	}
	if bill == nil {
		return domain.ErrNotFound
	}
	if bill.FirmID != firmID {
		return domain.ErrForbidden
	}
	return uc.txRunner.RunBilling(ctx, func(billRepo repository.BillRepository) error {
		if err := billRepo.DeleteItemsByBillID(id); err != nil {
			return err
		}
		return billRepo.Delete(id)
	})
}

// Get obtiene una factura con sus líneas, verificando el tenant.
func (uc *BillUseCase) Get(ctx context.Context, firmID, id string) (*dto.BillResponse, error) {
	bill, err := uc.billRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	if bill.FirmID != firmID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.billRepo.GetItemsByBillID(id)
	if err != nil {
		return nil, err
	}
	return toBillResponse(bill, items), nil
}

// ListByFirm lista todas las facturas de la firma (cabeceras).
func (uc *BillUseCase) ListByFirm(ctx context.Context, firmID string, limit, offset int) (*dto.BillListResponse, error) {
	list, err := uc.billRepo.ListByFirm(firmID, limit, offset)
	if err != nil {
		return nil, err
	}
	return toBillListResponse(list, limit, offset), nil
}

// ListByUser lista las facturas creadas por la cuenta del caller.
func (uc *BillUseCase) ListByUser(ctx context.Context, firmID, userID string, limit, offset int) (*dto.BillListResponse, error) {
	list, err := uc.billRepo.ListByUser(firmID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return toBillListResponse(list, limit, offset), nil
}

func toBillResponse(b *entity.Bill, items []*entity.BillItem) *dto.BillResponse {
	resp := &dto.BillResponse{
		ID:            b.ID,
		FirmID:        b.FirmID,
		UserID:        b.UserID,
		Title:         b.Title,
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		TotalAmount:   b.TotalAmount,
		Items:         make([]dto.BillItemResponse, 0, len(items)),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.BillItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Total:       item.Total,
		})
	}
	return resp
}

func toBillListResponse(list []*entity.Bill, limit, offset int) *dto.BillListResponse {
	items := make([]dto.BillSummaryResponse, 0, len(list))
	for _, b := range list {
		items = append(items, dto.BillSummaryResponse{
			ID:           b.ID,
			UserID:       b.UserID,
			Title:        b.Title,
			CustomerName: b.CustomerName,
			TotalAmount:  b.TotalAmount,
			CreatedAt:    b.CreatedAt,
		})
	}
	return &dto.BillListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
}
