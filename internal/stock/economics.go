package stock

// ProfitPerUnit is selling price minus cost price. It can go negative when
// the selling-price invariant was bypassed upstream; no re-validation here.
func ProfitPerUnit(costPrice, sellingPrice float64) float64 {
	return sellingPrice - costPrice
}

// ProfitMarginPercent is profit over cost as a percentage. A zero cost
// price yields 0, never NaN or infinity.
func ProfitMarginPercent(costPrice, sellingPrice float64) float64 {
	if costPrice == 0 {
		return 0
	}
	return ProfitPerUnit(costPrice, sellingPrice) / costPrice * 100
}

// StockValue is the quantity on hand valued at cost.
func StockValue(quantity int64, costPrice float64) float64 {
	return float64(quantity) * costPrice
}

// PotentialRevenue is the quantity on hand valued at selling price.
func PotentialRevenue(quantity int64, sellingPrice float64) float64 {
	return float64(quantity) * sellingPrice
}
