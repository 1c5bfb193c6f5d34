// Package stock holds the inventory engine: stock-state derivation, unit
// economics and SKU handling. All functions are pure and total over
// in-memory values.
package stock

import "medichart/m/domain"

// DeriveStatus computes the quantity-driven stock state. First match wins:
// zero quantity is OUT_OF_STOCK, quantity at or below the threshold is
// LOW_STOCK (the boundary is inclusive), everything else is IN_STOCK.
// DISCONTINUED is never produced here.
func DeriveStatus(quantity, lowStockThreshold int64) domain.StockStatus {
	switch {
	case quantity == 0:
		return domain.StockOutOfStock
	case quantity <= lowStockThreshold:
		return domain.StockLowStock
	default:
		return domain.StockInStock
	}
}

// ValidStatus reports whether s is one of the enumerated stock statuses.
func ValidStatus(s domain.StockStatus) bool {
	switch s {
	case domain.StockInStock, domain.StockLowStock, domain.StockOutOfStock, domain.StockDiscontinued:
		return true
	}
	return false
}

// EffectiveStatus recomputes an item's status on read. A discontinued item
// bypasses derivation entirely; DISCONTINUED is terminal and externally
// assigned.
func EffectiveStatus(item domain.InventoryItem) domain.StockStatus {
	if item.Status == domain.StockDiscontinued {
		return domain.StockDiscontinued
	}
	return DeriveStatus(item.Quantity, item.LowStockThreshold)
}

// NeedsReorder flags an item whose quantity has fallen to or below its
// reorder level. Discontinued items are never reordered.
func NeedsReorder(item domain.InventoryItem) bool {
	if item.Status == domain.StockDiscontinued {
		return false
	}
	return item.Quantity <= item.ReorderLevel
}
