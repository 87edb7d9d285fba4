package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/firmbill-api/internal/domain/entity"
	"github.com/jhoicas/firmbill-api/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

// BillRepo implementación del puerto BillRepository sobre PostgreSQL (usable con pool o tx).
// Las escrituras de cabecera + líneas se invocan dentro de una tx vía TxRunner.
type BillRepo struct {
	q Querier
}

// NewBillRepository construye el adaptador de persistencia para facturas. Pasar pool o tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

const billColumns = `id, firm_id, user_id, title, COALESCE(customer_name, ''), COALESCE(customer_phone, ''), total_amount, created_at, updated_at`

// Create persiste la cabecera de la factura.
func (r *BillRepo) Create(bill *entity.Bill) error {
	query := `
		INSERT INTO bills (id, firm_id, user_id, title, customer_name, customer_phone, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		bill.ID, bill.FirmID, bill.UserID, bill.Title,
		nullIfEmpty(bill.CustomerName), nullIfEmpty(bill.CustomerPhone),
		bill.TotalAmount, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// CreateItem persiste una línea. product_id NULL = línea ad-hoc.
func (r *BillRepo) CreateItem(item *entity.BillItem) error {
	query := `
		INSERT INTO bill_items (id, bill_id, product_id, product_name, unit_price, quantity, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.BillID, nullIfEmpty(item.ProductID), item.ProductName,
		item.UnitPrice, item.Quantity, item.Total,
	)
	if err != nil {
		return fmt.Errorf("insert bill item: %w", err)
	}
	return nil
}

// Update actualiza la cabecera (título, cliente, total recalculado).
func (r *BillRepo) Update(bill *entity.Bill) error {
	query := `
		UPDATE bills SET title = $2, customer_name = $3, customer_phone = $4, total_amount = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		bill.ID, bill.Title, nullIfEmpty(bill.CustomerName), nullIfEmpty(bill.CustomerPhone),
		bill.TotalAmount, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return nil
}

// Delete elimina la cabecera de la factura.
func (r *BillRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return nil
}

// DeleteItemsByBillID elimina todas las líneas de una factura (replace y delete).
func (r *BillRepo) DeleteItemsByBillID(billID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM bill_items WHERE bill_id = $1`, billID)
	if err != nil {
		return fmt.Errorf("delete bill items: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera de una factura.
func (r *BillRepo) GetByID(id string) (*entity.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1`
	var b entity.Bill
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&b.ID, &b.FirmID, &b.UserID, &b.Title, &b.CustomerName, &b.CustomerPhone,
		&b.TotalAmount, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return &b, nil
}

// GetItemsByBillID obtiene todas las líneas de una factura.
func (r *BillRepo) GetItemsByBillID(billID string) ([]*entity.BillItem, error) {
	query := `
		SELECT id, bill_id, COALESCE(product_id, ''), product_name, unit_price, quantity, total
		FROM bill_items WHERE bill_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, billID)
	if err != nil {
		return nil, fmt.Errorf("list bill items: %w", err)
	}
	defer rows.Close()
	var list []*entity.BillItem
	for rows.Next() {
		var item entity.BillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.ProductID, &item.ProductName,
			&item.UnitPrice, &item.Quantity, &item.Total); err != nil {
			return nil, fmt.Errorf("scan bill item: %w", err)
		}
		list = append(list, &item)
	}
	return list, rows.Err()
}

// ListByFirm lista las facturas de una firma (filtro por firm_id en el query).
func (r *BillRepo) ListByFirm(firmID string, limit, offset int) ([]*entity.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE firm_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(query, firmID, limit, offset)
}

// ListByUser lista las facturas creadas por una cuenta dentro de su firma.
func (r *BillRepo) ListByUser(firmID, userID string, limit, offset int) ([]*entity.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE firm_id = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	return r.list(query, firmID, userID, limit, offset)
}

func (r *BillRepo) list(query string, args ...any) ([]*entity.Bill, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	var list []*entity.Bill
	for rows.Next() {
		var b entity.Bill
		if err := rows.Scan(&b.ID, &b.FirmID, &b.UserID, &b.Title, &b.CustomerName, &b.CustomerPhone,
			&b.TotalAmount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
