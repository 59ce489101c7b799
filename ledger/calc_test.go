package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeInvoiceTotals(t *testing.T) {
	// GIVEN a mixed set of line items
	items := []LineItem{
		{Description: "Retainer hours", Quantity: 10, Rate: MustMoney("12.00")},
		{Description: "Rush surcharge", Quantity: 1, Rate: MustMoney("5.50")},
	}

	// WHEN totals are computed at the default rate
	totals := ComputeInvoiceTotals(items, DefaultTaxRate)

	// THEN each value is exact at two decimal places
	if got := totals.Subtotal.String(); got != "125.50" {
		t.Errorf("subtotal = %s, want 125.50", got)
	}
	if got := totals.Tax.String(); got != "12.55" {
		t.Errorf("tax = %s, want 12.55", got)
	}
	if got := totals.Total.String(); got != "138.05" {
		t.Errorf("total = %s, want 138.05", got)
	}

	// AND line amounts preserve input order
	if len(totals.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(totals.Lines))
	}
	if got := totals.Lines[0].Amount.String(); got != "120.00" {
		t.Errorf("line 0 amount = %s, want 120.00", got)
	}
	if got := totals.Lines[1].Amount.String(); got != "5.50" {
		t.Errorf("line 1 amount = %s, want 5.50", got)
	}
}

func TestComputeInvoiceTotalsIdentity(t *testing.T) {
	// GIVEN rates chosen to force rounding in the tax step
	items := []LineItem{
		{Description: "a", Quantity: 3, Rate: MustMoney("33.33")},
		{Description: "b", Quantity: 7, Rate: MustMoney("0.07")},
	}

	totals := ComputeInvoiceTotals(items, DefaultTaxRate)

	// THEN subtotal + tax reproduces total exactly
	if !totals.Subtotal.Add(totals.Tax).Equal(totals.Total) {
		t.Errorf("subtotal %s + tax %s != total %s", totals.Subtotal, totals.Tax, totals.Total)
	}
}

func TestComputeInvoiceTotalsDeterministic(t *testing.T) {
	items := []LineItem{
		{Description: "hours", Quantity: 13, Rate: MustMoney("99.99")},
	}

	first := ComputeInvoiceTotals(items, DefaultTaxRate)
	second := ComputeInvoiceTotals(items, DefaultTaxRate)

	if first.Total.String() != second.Total.String() {
		t.Errorf("recomputation drifted: %s vs %s", first.Total, second.Total)
	}
}

func TestComputeInvoiceTotalsZeroQuantityAndRate(t *testing.T) {
	// GIVEN lines that contribute nothing
	items := []LineItem{
		{Description: "placeholder", Quantity: 0, Rate: MustMoney("50.00")},
		{Description: "gratis", Quantity: 4, Rate: MustMoney("0.00")},
	}

	totals := ComputeInvoiceTotals(items, DefaultTaxRate)

	if got := totals.Total.String(); got != "0.00" {
		t.Errorf("total = %s, want 0.00", got)
	}
	for i, line := range totals.Lines {
		if !line.Amount.IsZero() {
			t.Errorf("line %d amount = %s, want 0.00", i, line.Amount)
		}
	}
}

func TestComputeInvoiceTotalsCustomRate(t *testing.T) {
	items := []LineItem{{Description: "work", Quantity: 1, Rate: MustMoney("200.00")}}

	totals := ComputeInvoiceTotals(items, decimal.NewFromFloat(0.20))

	if got := totals.Tax.String(); got != "40.00" {
		t.Errorf("tax at 20%% = %s, want 40.00", got)
	}
	if got := totals.Total.String(); got != "240.00" {
		t.Errorf("total = %s, want 240.00", got)
	}
}

func TestValidateLineItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []LineItem
		wantErr bool
	}{
		{"empty list rejected", nil, true},
		{"negative quantity rejected", []LineItem{{Quantity: -1, Rate: MustMoney("1.00")}}, true},
		{"negative rate rejected", []LineItem{{Quantity: 1, Rate: MustMoney("-1.00")}}, true},
		{"zero quantity allowed", []LineItem{{Quantity: 0, Rate: MustMoney("1.00")}}, false},
		{"zero rate allowed", []LineItem{{Quantity: 1, Rate: MustMoney("0.00")}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLineItems(tc.items)
			if tc.wantErr && !IsValidation(err) {
				t.Errorf("want validation error, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("want nil error, got %v", err)
			}
		})
	}
}
