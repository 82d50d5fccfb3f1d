package studio

import "testing"

func TestStockStatus(t *testing.T) {
	cases := []struct {
		quantity int
		want     StockLevel
	}{
		{-1, StockEmpty},
		{0, StockEmpty},
		{1, StockLow},
		{2, StockLow},
		{3, StockPlenty},
		{100, StockPlenty},
	}
	for _, c := range cases {
		if got := StockStatus(c.quantity); got != c.want {
			t.Fatalf("StockStatus(%d) = %q, want %q", c.quantity, got, c.want)
		}
	}
}
