package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill representa una factura de una firma. TotalAmount es derivado: siempre
// igual a la suma de los totales de sus líneas al momento del último write.
type Bill struct {
	ID            string
	FirmID        string
	UserID        string // cuenta que creó la factura
	Title         string
	CustomerName  string
	CustomerPhone string
	TotalAmount   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BillItem es una línea de factura. ProductID es opcional: una línea ad-hoc no
// referencia el catálogo y trae su propio nombre y precio. Para líneas de
// catálogo, ProductName y UnitPrice son snapshots tomados al facturar.
type BillItem struct {
	ID          string
	BillID      string
	ProductID   string // vacío = línea ad-hoc
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int64           // siempre positivo
	Total       decimal.Decimal // UnitPrice * Quantity
}
