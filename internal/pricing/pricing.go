// Package pricing computes cart and order totals.
//
// Amounts stay exact while they are summed; rounding to cents (half up)
// happens only when a total is displayed or persisted.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ShippingFee is the flat per-order shipping charge.
	ShippingFee = decimal.RequireFromString("9.99")
	// TaxRate is applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.08")
)

// Line is the minimum a total needs to know about a cart line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute derives totals from lines. Lines with a non-positive quantity
// contribute nothing.
func Compute(lines []Line) Totals {
	subtotal := Subtotal(lines)
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal,
		Shipping: ShippingFee,
		Tax:      tax,
		Total:    subtotal.Add(ShippingFee).Add(tax),
	}
}

// Subtotal is Σ unitPrice × quantity.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Rounded returns the totals rounded to cents.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Shipping: t.Shipping.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
	}
}

// ParsePrice parses a decimal price string such as "199.99". Malformed
// input is treated as zero.
func ParsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
