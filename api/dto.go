/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WIRE FORMATS:
  Dates are ISO calendar dates (YYYY-MM-DD). Monetary amounts are decimal
  strings with two places; they are parsed into fixed-point values, never
  floats. Quantities are non-negative integers.

VALIDATION:
  Parsing helpers here reject malformed values; business-rule validation
  lives in the domain types and the orchestrator.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/retainer-engine/ledger"
)

// =============================================================================
// CONTRACTS
// =============================================================================

// ContractDTO represents a contract in API responses. Status is derived at
// response time from the contract's end date.
type ContractDTO struct {
	ID          string `json:"id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	Amount      string `json:"amount"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	SignedDate  string `json:"signed_date"`
	PDFURL      string `json:"pdf_url,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func contractDTO(c ledger.Contract, now time.Time) ContractDTO {
	return ContractDTO{
		ID:          string(c.ID),
		ClientName:  c.ClientName,
		ClientEmail: c.ClientEmail,
		Amount:      c.Amount.String(),
		StartDate:   c.StartDate.Format(ledger.DateLayout),
		EndDate:     c.EndDate.Format(ledger.DateLayout),
		SignedDate:  c.SignedDate.Format(ledger.DateLayout),
		PDFURL:      c.PDFURL,
		Status:      string(ledger.ContractLifecycle(c, now)),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

// ContractRequest is the body for contract create and update.
type ContractRequest struct {
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	Amount      string `json:"amount"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	SignedDate  string `json:"signed_date"`
	PDFURL      string `json:"pdf_url"`
}

func (r ContractRequest) toContract() (ledger.Contract, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return ledger.Contract{}, err
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return ledger.Contract{}, err
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return ledger.Contract{}, err
	}
	signed, err := parseDate("signed_date", r.SignedDate)
	if err != nil {
		return ledger.Contract{}, err
	}
	return ledger.Contract{
		ClientName:  r.ClientName,
		ClientEmail: r.ClientEmail,
		Amount:      amount,
		StartDate:   start,
		EndDate:     end,
		SignedDate:  signed,
		PDFURL:      r.PDFURL,
	}, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

type PaymentDTO struct {
	ID         string `json:"id"`
	ContractID string `json:"contract_id"`
	AmountPaid string `json:"amount_paid"`
	PaidOn     string `json:"paid_on"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func paymentDTO(p ledger.Payment) PaymentDTO {
	return PaymentDTO{
		ID:         string(p.ID),
		ContractID: string(p.ContractID),
		AmountPaid: p.AmountPaid.String(),
		PaidOn:     p.PaidOn.Format(ledger.DateLayout),
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

// PaymentRequest is the body for payment create and update.
type PaymentRequest struct {
	ContractID string `json:"contract_id"`
	AmountPaid string `json:"amount_paid"`
	PaidOn     string `json:"paid_on"`
	Notes      string `json:"notes"`
}

func (r PaymentRequest) toPayment() (ledger.Payment, error) {
	amount, err := parseAmount("amount_paid", r.AmountPaid)
	if err != nil {
		return ledger.Payment{}, err
	}
	paidOn, err := parseDate("paid_on", r.PaidOn)
	if err != nil {
		return ledger.Payment{}, err
	}
	return ledger.Payment{
		ContractID: ledger.ContractID(r.ContractID),
		AmountPaid: amount,
		PaidOn:     paidOn,
		Notes:      r.Notes,
	}, nil
}

// =============================================================================
// INVOICES
// =============================================================================

type InvoiceDTO struct {
	ID         string `json:"id"`
	ContractID string `json:"contract_id"`
	Number     string `json:"number"`
	Amount     string `json:"amount"`
	IssuedOn   string `json:"issued_on"`
	DueOn      string `json:"due_on"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
	PDFURL     string `json:"pdf_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func invoiceDTO(inv ledger.Invoice, now time.Time) InvoiceDTO {
	return InvoiceDTO{
		ID:         string(inv.ID),
		ContractID: string(inv.ContractID),
		Number:     inv.Number,
		Amount:     inv.Amount.String(),
		IssuedOn:   inv.IssuedOn.Format(ledger.DateLayout),
		DueOn:      inv.DueOn.Format(ledger.DateLayout),
		Status:     string(inv.EffectiveStatus(now)),
		Notes:      inv.Notes,
		PDFURL:     inv.PDFURL,
		CreatedAt:  inv.CreatedAt.Format(time.RFC3339),
	}
}

// LineItemDTO is one transient itemization row of an issuance request.
type LineItemDTO struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Rate        string `json:"rate"`
}

// IssueInvoiceRequest is the body for POST /api/invoices.
type IssueInvoiceRequest struct {
	ContractID string        `json:"contract_id"`
	Number     string        `json:"number"`
	IssueDate  string        `json:"issue_date"`
	DueDate    string        `json:"due_date"`
	Notes      string        `json:"notes"`
	Items      []LineItemDTO `json:"items"`
}

// UpdateInvoiceStatusRequest is the body for PUT /api/invoices/{id}/status.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

type StatusSummaryDTO struct {
	Active     int `json:"active"`
	EndingSoon int `json:"ending_soon"`
	Expired    int `json:"expired"`
}

type InvoiceTotalsDTO struct {
	Paid    string `json:"paid"`
	Unpaid  string `json:"unpaid"`
	Overdue string `json:"overdue"`
}

type DashboardSummaryDTO struct {
	Contracts    StatusSummaryDTO `json:"contracts"`
	Invoices     InvoiceTotalsDTO `json:"invoices"`
	TotalRevenue string           `json:"total_revenue"`
}

type MonthRevenueDTO struct {
	Month   string `json:"month"`
	Revenue string `json:"revenue"`
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &ledger.ValidationError{Field: field, Reason: "required"}
	}
	t, err := time.Parse(ledger.DateLayout, value)
	if err != nil {
		return time.Time{}, &ledger.ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

func parseAmount(field, value string) (ledger.Money, error) {
	if value == "" {
		return ledger.Money{}, &ledger.ValidationError{Field: field, Reason: "required"}
	}
	m, err := ledger.ParseMoney(value)
	if err != nil {
		return ledger.Money{}, &ledger.ValidationError{Field: field, Reason: "must be a decimal amount"}
	}
	return m, nil
}
