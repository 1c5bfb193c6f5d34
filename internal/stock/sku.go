package stock

import (
	"math/rand"
	"strings"
)

const (
	skuPrefix   = "MED-"
	skuAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	skuSuffix   = 6
)

// SuggestSKU produces a human-friendly SKU suggestion: a fixed prefix plus
// six random base-36 characters. It is only a suggestion; uniqueness is
// enforced by the database constraint, not here.
func SuggestSKU() string {
	var b strings.Builder
	b.WriteString(skuPrefix)
	for i := 0; i < skuSuffix; i++ {
		b.WriteByte(skuAlphabet[rand.Intn(len(skuAlphabet))])
	}
	return b.String()
}

// NormalizeCode trims and uppercases a SKU, barcode or batch number before
// it is saved. Idempotent on already-normalized input.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
