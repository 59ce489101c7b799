/*
Package ledger provides the financial document and ledger core.

PURPOSE:
  This package contains the domain records (Contract, Payment, Invoice) and
  the pure computation engines that derive everything the dashboard shows:
  contract lifecycle status, status summaries, monthly revenue buckets, and
  invoice totals. It also defines the line-item calculator used when an
  invoice is issued.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-point monetary amount (single currency)
  - Contract: A client retainer agreement, the ownership root
  - Payment: An amount paid against a contract on a given date
  - Invoice: A billed document with a computed total and a PDF artifact URL
  - LineItem: Transient description/quantity/rate tuple, never persisted

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift
  2. Ownership: Contract is the root; payments and invoices are reached
     only through an owner-scoped contract
  3. Purity: Status and aggregation functions take explicit inputs
     (records plus a "now") and perform no I/O

SEE ALSO:
  - status.go: Lifecycle status and dashboard aggregation
  - calc.go:   Line-item calculator
  - store.go:  Persistence interface
  - errors.go: Error taxonomy
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates (ISO, no time component).
const DateLayout = "2006-01-02"

// =============================================================================
// MONEY - Fixed-point monetary amount, single currency
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

// ParseMoney parses a decimal string (e.g. "125.50") into a Money value.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Value: d}, nil
}

// MustMoney parses a decimal string, returning zero on failure. Test helper.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return Money{Value: d}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) MulInt(n int) Money             { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }

// Round2 quantizes to two decimal places, the precision every monetary value
// is stored and rendered at.
func (m Money) Round2() Money { return Money{Value: m.Value.Round(2)} }

// String renders the amount with exactly two decimal places.
func (m Money) String() string { return m.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OwnerID string
type ContractID string
type PaymentID string
type InvoiceID string

// =============================================================================
// CONTRACT - Client retainer agreement (ownership root)
// =============================================================================

type ContractStatus string

const (
	ContractActive     ContractStatus = "active"
	ContractEndingSoon ContractStatus = "ending_soon"
	ContractExpired    ContractStatus = "expired"
)

type Contract struct {
	ID          ContractID
	OwnerID     OwnerID
	ClientName  string
	ClientEmail string
	Amount      Money
	StartDate   time.Time
	EndDate     time.Time
	SignedDate  time.Time
	PDFURL      string
	CreatedAt   time.Time
}

// Validate checks the field-level invariants enforced on create and update.
func (c Contract) Validate() error {
	if c.ClientName == "" {
		return &ValidationError{Field: "client_name", Reason: "required"}
	}
	if c.ClientEmail == "" {
		return &ValidationError{Field: "client_email", Reason: "required"}
	}
	if c.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() || c.SignedDate.IsZero() {
		return &ValidationError{Field: "dates", Reason: "start, end and signed dates are required"}
	}
	if c.EndDate.Before(c.StartDate) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start date"}
	}
	return nil
}

// =============================================================================
// PAYMENT - Recorded amount paid against a contract
// =============================================================================

type Payment struct {
	ID         PaymentID
	ContractID ContractID
	AmountPaid Money
	PaidOn     time.Time
	Notes      string
	CreatedAt  time.Time
}

func (p Payment) Validate() error {
	if p.ContractID == "" {
		return &ValidationError{Field: "contract_id", Reason: "required"}
	}
	if !p.AmountPaid.IsPositive() {
		return &ValidationError{Field: "amount_paid", Reason: "must be greater than zero"}
	}
	if p.PaidOn.IsZero() {
		return &ValidationError{Field: "paid_on", Reason: "required"}
	}
	return nil
}

// =============================================================================
// INVOICE - Billed document with computed total and PDF artifact
// =============================================================================

type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "UNPAID"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceOverdue InvoiceStatus = "OVERDUE"
)

// ParseInvoiceStatus validates a status string from the wire.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch InvoiceStatus(s) {
	case InvoiceUnpaid, InvoicePaid, InvoiceOverdue:
		return InvoiceStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: "must be UNPAID, PAID or OVERDUE"}
}

type Invoice struct {
	ID         InvoiceID
	ContractID ContractID
	Number     string
	Amount     Money
	IssuedOn   time.Time
	DueOn      time.Time
	Status     InvoiceStatus
	Notes      string
	PDFURL     string
	CreatedAt  time.Time
}

// EffectiveStatus reports the status the dashboard should display: a stored
// UNPAID invoice past its due date reads as OVERDUE. The stored record is
// never rewritten by this.
func (i Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceUnpaid && !i.DueOn.IsZero() && now.After(i.DueOn) {
		return InvoiceOverdue
	}
	return i.Status
}

// =============================================================================
// LINE ITEM - Transient itemization, exists only to compute and render
// =============================================================================

// LineItem is never persisted. The ledger stores the financial summary and
// the rendered artifact; the PDF is the system of record for the breakdown.
type LineItem struct {
	Description string
	Quantity    int
	Rate        Money
}
