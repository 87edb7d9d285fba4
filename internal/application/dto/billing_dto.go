package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillItemRequest línea de factura. Dos formas:
//   - catálogo: product_id + quantity (precio y nombre se copian del catálogo)
//   - ad-hoc:   product_name + unit_price + quantity (sin referencia al catálogo)
type BillItemRequest struct {
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price,omitempty"`
	Quantity    int64           `json:"quantity"`
}

// CreateBillRequest body para POST /api/bills y PUT /api/bills/:id
// (el update reemplaza todas las líneas con el set recalculado).
type CreateBillRequest struct {
	Title         string            `json:"title"`
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	Items         []BillItemRequest `json:"items"`
}

// BillResponse factura con sus líneas.
type BillResponse struct {
	ID            string             `json:"id"`
	FirmID        string             `json:"firm_id"`
	UserID        string             `json:"user_id"`
	Title         string             `json:"title"`
	CustomerName  string             `json:"customer_name,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []BillItemResponse `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// BillItemResponse línea en la respuesta. ProductID vacío = línea ad-hoc.
type BillItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// BillListResponse listado de facturas (sin líneas, cabeceras solamente).
type BillListResponse struct {
	Items []BillSummaryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// BillSummaryResponse cabecera de factura para listados.
type BillSummaryResponse struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Title        string          `json:"title"`
	CustomerName string          `json:"customer_name,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}
