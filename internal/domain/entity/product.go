package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un ítem del catálogo de una firma: un producto con precio
// reutilizable al facturar. Las líneas de factura copian nombre y precio al
// momento de facturar, así que cambiar el precio aquí no altera facturas históricas.
type Product struct {
	ID        string
	FirmID    string
	Name      string
	Price     decimal.Decimal // precio unitario, no negativo
	CreatedAt time.Time
	UpdatedAt time.Time
}
