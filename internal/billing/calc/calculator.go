// Package calc computes point-of-sale invoice totals.
//
// The functions here are pure: no storage, no clock, no rounding until
// display. All money flows through shopspring decimals so paise never
// drift through float arithmetic.
package calc

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line is one cart entry priced for calculation.
type Line struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
	TaxRatePercent  decimal.Decimal
}

// LineResult carries the derived amounts for one cart line.
type LineResult struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Taxable  decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Totals is the cart-level result.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalTax       decimal.Decimal
	GrandTotal     decimal.Decimal
	Lines          []LineResult
}

// ComputeLine derives one line's amounts. The line discount applies
// before tax; tax is charged on the discounted taxable value.
func ComputeLine(line Line) LineResult {
	subtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	discount := subtotal.Mul(line.DiscountPercent).Div(hundred)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(line.TaxRatePercent).Div(hundred)
	return LineResult{
		Subtotal: subtotal,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}
}

// Compute derives the cart totals.
//
// Subtotal sums the pre-discount line subtotals, and the cart-level
// discount is taken from that same pre-discount figure. Line discounts
// therefore reduce tax but not the cart discount base; this matches the
// totals printed on every invoice issued so far and must not change
// without a data migration. Tax is the sum of per-line tax only, so the
// cart discount never reduces tax.
//
// An empty cart yields all zeros. Line order does not affect any total.
func Compute(lines []Line, cartDiscountPercent decimal.Decimal) Totals {
	totals := Totals{
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalTax:       decimal.Zero,
		GrandTotal:     decimal.Zero,
	}
	if len(lines) == 0 {
		return totals
	}

	totals.Lines = make([]LineResult, 0, len(lines))
	for _, line := range lines {
		result := ComputeLine(line)
		totals.Lines = append(totals.Lines, result)
		totals.Subtotal = totals.Subtotal.Add(result.Subtotal)
		totals.TotalTax = totals.TotalTax.Add(result.Tax)
	}

	totals.DiscountAmount = totals.Subtotal.Mul(cartDiscountPercent).Div(hundred)
	totals.GrandTotal = totals.Subtotal.Sub(totals.DiscountAmount).Add(totals.TotalTax)
	return totals
}

// GSTSplit divides a tax amount into its GST components. Intra-state
// sales split the tax into equal CGST and SGST halves; inter-state
// sales charge the whole amount as IGST. The components always sum to
// the input tax.
type GSTSplit struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
}

// SplitGST derives the GST components for a tax amount.
func SplitGST(tax decimal.Decimal, interState bool) GSTSplit {
	if interState {
		return GSTSplit{CGST: decimal.Zero, SGST: decimal.Zero, IGST: tax}
	}
	half := tax.Div(decimal.NewFromInt(2))
	return GSTSplit{CGST: half, SGST: tax.Sub(half), IGST: decimal.Zero}
}
