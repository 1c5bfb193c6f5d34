package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"medichart/m/domain"
	"medichart/m/internal/stock"
)

const inventoryColumns = `id, name, description, category, sku, barcode, quantity, low_stock_threshold, cost_price, selling_price, supplier, batch_number, expiry_date, location, reorder_level, reorder_quantity, notes, status, created_at, updated_at`

type inventoryRequest struct {
	Name              string             `json:"name"`
	Description       string             `json:"description"`
	Category          string             `json:"category"`
	SKU               string             `json:"sku"`
	Barcode           string             `json:"barcode"`
	Quantity          int64              `json:"quantity"`
	LowStockThreshold *int64             `json:"low_stock_threshold"`
	CostPrice         float64            `json:"cost_price"`
	SellingPrice      float64            `json:"selling_price"`
	Supplier          string             `json:"supplier"`
	BatchNumber       string             `json:"batch_number"`
	ExpiryDate        string             `json:"expiry_date"`
	Location          string             `json:"location"`
	ReorderLevel      *int64             `json:"reorder_level"`
	ReorderQuantity   *int64             `json:"reorder_quantity"`
	Notes             string             `json:"notes"`
	Status            domain.StockStatus `json:"status"`
}

// toItem applies creation defaults and normalizes the uppercase-coded
// fields. SKU, barcode and batch number are normalized on every save.
func (req inventoryRequest) toItem() domain.InventoryItem {
	item := domain.InventoryItem{
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Category:          strings.TrimSpace(req.Category),
		SKU:               stock.NormalizeCode(req.SKU),
		Barcode:           stock.NormalizeCode(req.Barcode),
		Quantity:          req.Quantity,
		LowStockThreshold: 10,
		CostPrice:         req.CostPrice,
		SellingPrice:      req.SellingPrice,
		Supplier:          req.Supplier,
		BatchNumber:       stock.NormalizeCode(req.BatchNumber),
		ExpiryDate:        nullIfEmpty(req.ExpiryDate),
		Location:          req.Location,
		ReorderLevel:      5,
		ReorderQuantity:   25,
		Notes:             req.Notes,
		Status:            req.Status,
	}
	if req.LowStockThreshold != nil {
		item.LowStockThreshold = *req.LowStockThreshold
	}
	if req.ReorderLevel != nil {
		item.ReorderLevel = *req.ReorderLevel
	}
	if req.ReorderQuantity != nil {
		item.ReorderQuantity = *req.ReorderQuantity
	}
	if item.Category == "" {
		item.Category = stock.DefaultCategory
	}
	return item
}

func validateItem(item domain.InventoryItem) string {
	switch {
	case item.Name == "":
		return "name is required"
	case item.SKU == "":
		return "sku is required"
	case item.Quantity < 0:
		return "quantity cannot be negative"
	case item.LowStockThreshold < 0:
		return "low_stock_threshold cannot be negative"
	case item.CostPrice < 0:
		return "cost_price cannot be negative"
	case item.SellingPrice < item.CostPrice:
		return "selling_price must be at least cost_price"
	case !stock.ValidStatus(item.Status):
		return "status must be IN_STOCK, LOW_STOCK, OUT_OF_STOCK or DISCONTINUED"
	case !stock.ValidCategory(item.Category):
		return "unknown category"
	}
	return ""
}

// inventoryView is an item plus its derived fields, recomputed on every
// read. Currency stays raw; formatting belongs to the UI.
type inventoryView struct {
	domain.InventoryItem
	ProfitPerUnit       float64 `json:"profit_per_unit"`
	ProfitMarginPercent float64 `json:"profit_margin_percent"`
	StockValue          float64 `json:"stock_value"`
	PotentialRevenue    float64 `json:"potential_revenue"`
	NeedsReorder        bool    `json:"needs_reorder"`
}

func viewOf(item domain.InventoryItem) inventoryView {
	item.Status = stock.EffectiveStatus(item)
	return inventoryView{
		InventoryItem:       item,
		ProfitPerUnit:       stock.ProfitPerUnit(item.CostPrice, item.SellingPrice),
		ProfitMarginPercent: stock.ProfitMarginPercent(item.CostPrice, item.SellingPrice),
		StockValue:          stock.StockValue(item.Quantity, item.CostPrice),
		PotentialRevenue:    stock.PotentialRevenue(item.Quantity, item.SellingPrice),
		NeedsReorder:        stock.NeedsReorder(item),
	}
}

func viewsOf(items []domain.InventoryItem) []inventoryView {
	views := make([]inventoryView, len(items))
	for i, item := range items {
		views[i] = viewOf(item)
	}
	return views
}

func (h *Handler) createInventoryItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "pharmacist", "admin") {
		return
	}
	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item := req.toItem()
	if item.Status == "" {
		item.Status = stock.DeriveStatus(item.Quantity, item.LowStockThreshold)
	}
	if msg := validateItem(item); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	var id int64
	err := h.db.QueryRowx(`INSERT INTO inventory_items (name, description, category, sku, barcode, quantity, low_stock_threshold, cost_price, selling_price, supplier, batch_number, expiry_date, location, reorder_level, reorder_quantity, notes, status)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		item.Name, item.Description, item.Category, item.SKU, item.Barcode, item.Quantity, item.LowStockThreshold,
		item.CostPrice, item.SellingPrice, item.Supplier, item.BatchNumber, item.ExpiryDate, item.Location,
		item.ReorderLevel, item.ReorderQuantity, item.Notes, item.Status).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "sku already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create inventory item")
		return
	}

	created, err := h.loadInventoryItem(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch inventory item")
		return
	}
	respondJSON(w, http.StatusCreated, viewOf(created))
}

func (h *Handler) listInventoryItems(w http.ResponseWriter, r *http.Request) {
	var (
		args    []any
		clauses []string
	)

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query != "" {
		like := "%" + query + "%"
		args = append(args, like, like)
		clauses = append(clauses, "(name LIKE ? OR sku LIKE ?)")
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" {
		args = append(args, category)
		clauses = append(clauses, "category = ?")
	}

	sqlQuery := `SELECT ` + inventoryColumns + ` FROM inventory_items`
	if len(clauses) > 0 {
		sqlQuery += " WHERE " + strings.Join(clauses, " AND ")
	}
	sqlQuery += " ORDER BY name LIMIT 100"

	var items []domain.InventoryItem
	if err := h.db.Select(&items, sqlQuery, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list inventory")
		return
	}

	views := viewsOf(items)

	// Status filtering happens after derivation so stale stored values
	// cannot leak through.
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filtered := views[:0]
		for _, v := range views {
			if string(v.Status) == status {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) loadInventoryItem(id int64) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := h.db.Get(&item, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ?`, id)
	return item, err
}

func (h *Handler) getInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	item, err := h.loadInventoryItem(id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch inventory item")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(item))
}

func (h *Handler) updateInventoryItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "pharmacist", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	var req inventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item := req.toItem()
	if item.Status == "" {
		item.Status = stock.DeriveStatus(item.Quantity, item.LowStockThreshold)
	}
	if msg := validateItem(item); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.db.Exec(`UPDATE inventory_items SET name = ?, description = ?, category = ?, sku = ?, barcode = ?, quantity = ?, low_stock_threshold = ?, cost_price = ?, selling_price = ?, supplier = ?, batch_number = ?, expiry_date = ?, location = ?, reorder_level = ?, reorder_quantity = ?, notes = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		item.Name, item.Description, item.Category, item.SKU, item.Barcode, item.Quantity, item.LowStockThreshold,
		item.CostPrice, item.SellingPrice, item.Supplier, item.BatchNumber, item.ExpiryDate, item.Location,
		item.ReorderLevel, item.ReorderQuantity, item.Notes, item.Status, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			respondError(w, http.StatusConflict, "sku already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to update inventory item")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}

	updated, err := h.loadInventoryItem(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch inventory item")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(updated))
}

func (h *Handler) deleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "pharmacist", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	res, err := h.db.Exec(`DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete inventory item")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "pharmacist", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	var payload struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity cannot be negative")
		return
	}
	res, err := h.db.Exec(`UPDATE inventory_items SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, payload.Quantity, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update stock")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}

	item, err := h.loadInventoryItem(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch inventory item")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(item))
}

// discontinueItem marks an item DISCONTINUED. The state is terminal and
// bypasses quantity-driven derivation from then on.
func (h *Handler) discontinueItem(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, "pharmacist", "admin") {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid inventory id")
		return
	}
	res, err := h.db.Exec(`UPDATE inventory_items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, domain.StockDiscontinued, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to discontinue item")
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	item, err := h.loadInventoryItem(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch inventory item")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(item))
}

func (h *Handler) lowStockItems(w http.ResponseWriter, r *http.Request) {
	var items []domain.InventoryItem
	err := h.db.Select(&items, `SELECT `+inventoryColumns+` FROM inventory_items WHERE quantity <= low_stock_threshold AND status != ? ORDER BY quantity ASC`, domain.StockDiscontinued)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch low-stock items")
		return
	}
	respondJSON(w, http.StatusOK, viewsOf(items))
}

func (h *Handler) expiryAlerts(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 30
	}
	var items []domain.InventoryItem
	if err := h.db.Select(&items, `SELECT `+inventoryColumns+` FROM inventory_items
                WHERE expiry_date IS NOT NULL
                AND expiry_date <= DATE('now', '+' || ? || ' days')
                ORDER BY expiry_date ASC`, days); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch alerts")
		return
	}
	respondJSON(w, http.StatusOK, viewsOf(items))
}

func (h *Handler) inventoryCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, stock.Categories)
}

func (h *Handler) skuSuggestion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"sku": stock.SuggestSKU()})
}
