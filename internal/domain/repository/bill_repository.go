package repository

import "github.com/jhoicas/firmbill-api/internal/domain/entity"

// BillRepository define el puerto de persistencia para Bill y sus líneas.
// Create/CreateItem/Update/DeleteItemsByBillID/Delete se invocan dentro de una
// transacción (vía TxRunner) para que cabecera y líneas sean atómicas.
type BillRepository interface {
	Create(bill *entity.Bill) error
	CreateItem(item *entity.BillItem) error
	Update(bill *entity.Bill) error
	Delete(id string) error
	DeleteItemsByBillID(billID string) error
	GetByID(id string) (*entity.Bill, error)
	GetItemsByBillID(billID string) ([]*entity.BillItem, error)
	ListByFirm(firmID string, limit, offset int) ([]*entity.Bill, error)
	ListByUser(firmID, userID string, limit, offset int) ([]*entity.Bill, error)
}
