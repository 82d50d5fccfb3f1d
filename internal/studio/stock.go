package studio

// StockLevel is the three-valued classification of a supply's quantity.
type StockLevel string

const (
	StockEmpty  StockLevel = "empty"
	StockLow    StockLevel = "low"
	StockPlenty StockLevel = "plenty"
)

// LowStockThreshold is the quantity at or below which a supply counts as low.
const LowStockThreshold = 2

// StockStatus is the single derivation of stock level from quantity. Every
// consumer (API responses, the low-stock query, agent tool results) goes
// through here so they cannot disagree.
func StockStatus(quantity int) StockLevel {
	switch {
	case quantity <= 0:
		return StockEmpty
	case quantity <= LowStockThreshold:
		return StockLow
	default:
		return StockPlenty
	}
}
