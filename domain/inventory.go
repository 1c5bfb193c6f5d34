package domain

type StockStatus string

const (
	StockInStock      StockStatus = "IN_STOCK"
	StockLowStock     StockStatus = "LOW_STOCK"
	StockOutOfStock   StockStatus = "OUT_OF_STOCK"
	StockDiscontinued StockStatus = "DISCONTINUED"
)

// InventoryItem is one stocked product. Status is derived from quantity and
// the low-stock threshold on every read, except DISCONTINUED which is set
// externally and never overwritten by derivation.
type InventoryItem struct {
	ID                int64       `db:"id" json:"id"`
	Name              string      `db:"name" json:"name"`
	Description       string      `db:"description" json:"description,omitempty"`
	Category          string      `db:"category" json:"category"`
	SKU               string      `db:"sku" json:"sku"`
	Barcode           string      `db:"barcode" json:"barcode,omitempty"`
	Quantity          int64       `db:"quantity" json:"quantity"`
	LowStockThreshold int64       `db:"low_stock_threshold" json:"low_stock_threshold"`
	CostPrice         float64     `db:"cost_price" json:"cost_price"`
	SellingPrice      float64     `db:"selling_price" json:"selling_price"`
	Supplier          string      `db:"supplier" json:"supplier,omitempty"`
	BatchNumber       string      `db:"batch_number" json:"batch_number,omitempty"`
	ExpiryDate        *string     `db:"expiry_date" json:"expiry_date,omitempty"`
	Location          string      `db:"location" json:"location,omitempty"`
	ReorderLevel      int64       `db:"reorder_level" json:"reorder_level"`
	ReorderQuantity   int64       `db:"reorder_quantity" json:"reorder_quantity"`
	Notes             string      `db:"notes" json:"notes,omitempty"`
	Status            StockStatus `db:"status" json:"status"`
	CreatedAt         string      `db:"created_at" json:"created_at"`
	UpdatedAt         string      `db:"updated_at" json:"updated_at"`
}
