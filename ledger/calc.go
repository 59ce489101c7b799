/*
calc.go - Invoice line-item calculator

PURPOSE:
  Computes per-line amounts, subtotal, tax and total from a list of
  (description, quantity, rate) tuples. Invoiced amounts are money; all
  arithmetic is decimal and every result is quantized to two places, so
  repeated recomputation of the same items is bit-identical and
  round(subtotal) + round(tax) always reproduces round(total).

TAX:
  The rate is configuration, not a literal (default 10%). See DefaultTaxRate.
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat tax applied to invoice subtotals (10%).
var DefaultTaxRate = decimal.NewFromFloat(0.10)

// LineAmount is a line item together with its computed amount.
type LineAmount struct {
	LineItem
	Amount Money
}

// InvoiceTotals is the full computed breakdown for one invoice.
type InvoiceTotals struct {
	Lines    []LineAmount
	Subtotal Money
	Tax      Money
	Total    Money
}

// ValidateLineItems checks the invariants the calculator assumes. Callers
// run this before computing; the calculator itself never errors.
func ValidateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one line item is required"}
	}
	for _, it := range items {
		if it.Quantity < 0 {
			return &ValidationError{Field: "quantity", Reason: "must not be negative"}
		}
		if it.Rate.IsNegative() {
			return &ValidationError{Field: "rate", Reason: "must not be negative"}
		}
	}
	return nil
}

// ComputeInvoiceTotals computes amount = quantity * rate per item (input
// order preserved), subtotal, tax = subtotal * taxRate, and total. Zero
// quantity or zero rate yields a 0.00 amount without error. Each value is
// rounded to two places as it is produced, so the totals identity holds
// exactly: Subtotal + Tax == Total at two places.
func ComputeInvoiceTotals(items []LineItem, taxRate decimal.Decimal) InvoiceTotals {
	lines := make([]LineAmount, len(items))
	subtotal := ZeroMoney()
	for i, it := range items {
		amount := it.Rate.MulInt(it.Quantity).Round2()
		lines[i] = LineAmount{LineItem: it, Amount: amount}
		subtotal = subtotal.Add(amount)
	}
	subtotal = subtotal.Round2()
	tax := subtotal.Mul(taxRate).Round2()
	total := subtotal.Add(tax)
	return InvoiceTotals{
		Lines:    lines,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
	}
}
