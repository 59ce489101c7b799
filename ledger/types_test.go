package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestContractValidate(t *testing.T) {
	valid := contractEnding("2024-12-31")

	tests := []struct {
		name   string
		mutate func(*Contract)
		field  string
	}{
		{"missing client name", func(c *Contract) { c.ClientName = "" }, "client_name"},
		{"missing client email", func(c *Contract) { c.ClientEmail = "" }, "client_email"},
		{"negative amount", func(c *Contract) { c.Amount = MustMoney("-1.00") }, "amount"},
		{"missing dates", func(c *Contract) { c.StartDate = time.Time{} }, "dates"},
		{"end before start", func(c *Contract) { c.EndDate = date("2022-01-01") }, "end_date"},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid contract rejected: %v", err)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			if !IsValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
			var verr *ValidationError
			if errors.As(err, &verr) && verr.Field != tc.field {
				t.Errorf("error field = %s, want %s", verr.Field, tc.field)
			}
		})
	}
}

func TestContractValidateZeroAmountAllowed(t *testing.T) {
	c := contractEnding("2024-12-31")
	c.Amount = ZeroMoney()
	if err := c.Validate(); err != nil {
		t.Errorf("zero amount should be valid, got %v", err)
	}
}

func TestPaymentValidate(t *testing.T) {
	valid := Payment{
		ContractID: "c-1",
		AmountPaid: MustMoney("10.00"),
		PaidOn:     date("2024-01-01"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid payment rejected: %v", err)
	}

	zero := valid
	zero.AmountPaid = ZeroMoney()
	if !IsValidation(zero.Validate()) {
		t.Error("zero payment amount should be rejected")
	}

	orphan := valid
	orphan.ContractID = ""
	if !IsValidation(orphan.Validate()) {
		t.Error("payment without contract should be rejected")
	}
}

func TestParseInvoiceStatus(t *testing.T) {
	for _, s := range []string{"UNPAID", "PAID", "OVERDUE"} {
		if _, err := ParseInvoiceStatus(s); err != nil {
			t.Errorf("ParseInvoiceStatus(%s) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseInvoiceStatus("paid"); !IsValidation(err) {
		t.Errorf("lowercase status should be rejected, got %v", err)
	}
	if _, err := ParseInvoiceStatus("CANCELLED"); !IsValidation(err) {
		t.Errorf("unknown status should be rejected, got %v", err)
	}
}

func TestMoneyStringAlwaysTwoPlaces(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0", "0.00"},
		{"5", "5.00"},
		{"5.5", "5.50"},
		{"5.505", "5.51"},
		{"-3.1", "-3.10"},
	}
	for _, tc := range tests {
		if got := MustMoney(tc.in).String(); got != tc.want {
			t.Errorf("Money(%s).String() = %s, want %s", tc.in, got, tc.want)
		}
	}
}
