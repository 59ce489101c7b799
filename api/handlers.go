/*
handlers.go - HTTP API handlers for the retainer ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response and
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Contracts:
    GET    /api/contracts             List contracts
    POST   /api/contracts             Create contract
    GET    /api/contracts/{id}        Get contract
    PUT    /api/contracts/{id}        Update contract
    DELETE /api/contracts/{id}        Delete contract (blocked with dependents)
    POST   /api/contracts/{id}/pdf      Attach an uploaded contract PDF
    GET    /api/contracts/{id}/payments Payments against one contract
    GET    /api/contracts/{id}/invoices Invoices against one contract

  Payments:
    GET    /api/payments              List payments (owner-wide)
    POST   /api/payments              Record payment
    GET    /api/payments/{id}         Get payment
    PUT    /api/payments/{id}         Update payment
    DELETE /api/payments/{id}         Delete payment

  Invoices:
    GET    /api/invoices              List invoices
    POST   /api/invoices              Issue invoice (render + upload + persist)
    GET    /api/invoices/{id}         Get invoice
    PUT    /api/invoices/{id}/status  Set invoice status
    DELETE /api/invoices/{id}         Delete invoice

  Dashboard:
    GET    /api/dashboard/summary     Contract status counts, invoice totals
    GET    /api/dashboard/revenue     Twelve monthly revenue buckets
    GET    /api/dashboard/payments    Recent payments

ERROR HANDLING:
  Errors map to HTTP status by category:
  - 400: Validation errors, reported verbatim
  - 401: Missing owner identity
  - 404: Missing records, including records owned by someone else
  - 409: Contract deletion blocked by dependents
  - 500: Store or gateway failures; cause logged, generic message returned

SEE ALSO:
  - dto.go:        Request/response data structures
  - middleware.go: Owner identity extraction
  - server.go:     Router setup
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/retainer-engine/artifact"
	"github.com/warp/retainer-engine/issuance"
	"github.com/warp/retainer-engine/ledger"
	"github.com/warp/retainer-engine/pkg/logger"
)

// maxUploadBytes caps contract PDF uploads at 10MB.
const maxUploadBytes = 10 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     ledger.Store
	Artifacts artifact.Store
	Issuer    *issuance.Orchestrator

	// Now is the dashboard clock; tests pin it.
	Now func() time.Time
}

// NewHandler creates a handler around the given collaborators.
func NewHandler(store ledger.Store, artifacts artifact.Store, issuer *issuance.Orchestrator) *Handler {
	return &Handler{
		Store:     store,
		Artifacts: artifacts,
		Issuer:    issuer,
		Now:       time.Now,
	}
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns the owner's contracts, newest first.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Store.ListContracts(r.Context(), ownerFrom(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	now := h.Now()
	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = contractDTO(c, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateContract validates and persists a new contract.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contract, err := req.toContract()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	contract.ID = ledger.ContractID(uuid.NewString())
	contract.OwnerID = ownerFrom(r)
	contract.CreatedAt = h.Now().UTC()

	if err := contract.Validate(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.CreateContract(r.Context(), contract); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, contractDTO(contract, h.Now()))
}

// GetContract returns a single contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := ledger.ContractID(chi.URLParam(r, "id"))

	contract, err := h.Store.GetContract(r.Context(), ownerFrom(r), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contractDTO(*contract, h.Now()))
}

// UpdateContract replaces the editable fields of a contract.
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	id := ledger.ContractID(chi.URLParam(r, "id"))

	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contract, err := req.toContract()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	contract.ID = id
	contract.OwnerID = ownerFrom(r)

	if err := contract.Validate(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.UpdateContract(r.Context(), ownerFrom(r), contract); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, contractDTO(contract, h.Now()))
}

// DeleteContract removes a contract without dependents.
func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	id := ledger.ContractID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteContract(r.Context(), ownerFrom(r), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadContractPDF accepts a multipart PDF, stores it in the artifact
// store, and records the URL on the contract.
func (h *Handler) UploadContractPDF(w http.ResponseWriter, r *http.Request) {
	id := ledger.ContractID(chi.URLParam(r, "id"))
	owner := ownerFrom(r)
	ctx := r.Context()

	contract, err := h.Store.GetContract(ctx, owner, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "File exceeds the 10MB limit or the form is malformed", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload", err)
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "No file provided", nil)
		return
	}

	// Trust the sniffed content over the declared header.
	if detected := http.DetectContentType(data); !strings.Contains(detected, "pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are allowed", nil)
		return
	}

	key := artifact.KeyFor(artifact.NamespaceContracts, header.Filename)
	url, err := h.Artifacts.Put(ctx, key, data, "application/pdf")
	if err != nil {
		h.writeDomainError(w, r, &ledger.UpstreamError{System: "artifact-store", Cause: err})
		return
	}

	contract.PDFURL = url
	if err := h.Store.UpdateContract(ctx, owner, *contract); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"pdf_url": url})
}

// ListContractPayments returns the payments recorded against one contract.
func (h *Handler) ListContractPayments(w http.ResponseWriter, r *http.Request) {
	id := ledger.ContractID(chi.URLParam(r, "id"))

	payments, err := h.Store.ListContractPayments(r.Context(), ownerFrom(r), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = paymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListContractInvoices returns the invoices issued against one contract.
func (h *Handler) ListContractInvoices(w http.ResponseWriter, r *http.Request) {
	id := ledger.ContractID(chi.URLParam(r, "id"))

	invoices, err := h.Store.ListContractInvoices(r.Context(), ownerFrom(r), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	now := h.Now()
	dtos := make([]InvoiceDTO, len(invoices))
	for i, inv := range invoices {
		dtos[i] = invoiceDTO(inv, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns all payments across the owner's contracts.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context(), ownerFrom(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = paymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayment records a payment against one of the owner's contracts.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment, err := req.toPayment()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	payment.ID = ledger.PaymentID(uuid.NewString())
	payment.CreatedAt = h.Now().UTC()

	if err := payment.Validate(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.CreatePayment(r.Context(), ownerFrom(r), payment); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, paymentDTO(payment))
}

// GetPayment returns a single payment.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))

	payment, err := h.Store.GetPayment(r.Context(), ownerFrom(r), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentDTO(*payment))
}

// UpdatePayment replaces the editable fields of a payment.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment, err := req.toPayment()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	payment.ID = id

	if err := payment.Validate(); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.UpdatePayment(r.Context(), ownerFrom(r), payment); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentDTO(payment))
}

// DeletePayment removes a payment.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))

	if err := h.Store.DeletePayment(r.Context(), ownerFrom(r), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// ListInvoices returns all invoices across the owner's contracts.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListInvoices(r.Context(), ownerFrom(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	now := h.Now()
	dtos := make([]InvoiceDTO, len(invoices))
	for i, inv := range invoices {
		dtos[i] = invoiceDTO(inv, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// IssueInvoice runs the issuance pipeline: validate, compute totals, render
// the PDF, upload it, persist the record.
func (h *Handler) IssueInvoice(w http.ResponseWriter, r *http.Request) {
	var req IssueInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	issueDate, err := parseDate("issue_date", req.IssueDate)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	dueDate, err := parseDate("due_date", req.DueDate)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	items := make([]ledger.LineItem, len(req.Items))
	for i, it := range req.Items {
		rate, err := parseAmount("rate", it.Rate)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		items[i] = ledger.LineItem{Description: it.Description, Quantity: it.Quantity, Rate: rate}
	}

	invoice, err := h.Issuer.Issue(r.Context(), issuance.Request{
		OwnerID:    ownerFrom(r),
		ContractID: ledger.ContractID(req.ContractID),
		Number:     req.Number,
		IssuedOn:   issueDate,
		DueOn:      dueDate,
		Notes:      req.Notes,
		Items:      items,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, invoiceDTO(*invoice, h.Now()))
}

// GetInvoice returns a single invoice.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvoiceID(chi.URLParam(r, "id"))

	invoice, err := h.Store.GetInvoice(r.Context(), ownerFrom(r), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invoiceDTO(*invoice, h.Now()))
}

// UpdateInvoiceStatus sets the stored status of an invoice.
func (h *Handler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvoiceID(chi.URLParam(r, "id"))

	var req UpdateInvoiceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status, err := ledger.ParseInvoiceStatus(req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.Store.UpdateInvoiceStatus(r.Context(), ownerFrom(r), id, status); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// DeleteInvoice removes an invoice record. The uploaded artifact is left in
// place; the store holds the ledger, not the blobs.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvoiceID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteInvoice(r.Context(), ownerFrom(r), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// DashboardSummary returns the contract status counts, invoice totals per
// status, and total revenue.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := ownerFrom(r)

	contracts, err := h.Store.ListContracts(ctx, owner)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	payments, err := h.Store.ListPayments(ctx, owner)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	invoices, err := h.Store.ListInvoices(ctx, owner)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	now := h.Now()
	summary := ledger.SummarizeContracts(contracts, now)

	writeJSON(w, http.StatusOK, DashboardSummaryDTO{
		Contracts: StatusSummaryDTO{
			Active:     summary.Active,
			EndingSoon: summary.EndingSoon,
			Expired:    summary.Expired,
		},
		Invoices: InvoiceTotalsDTO{
			Paid:    ledger.InvoiceTotalByStatus(invoices, ledger.InvoicePaid, now).String(),
			Unpaid:  ledger.InvoiceTotalByStatus(invoices, ledger.InvoiceUnpaid, now).String(),
			Overdue: ledger.InvoiceTotalByStatus(invoices, ledger.InvoiceOverdue, now).String(),
		},
		TotalRevenue: ledger.TotalRevenue(payments).String(),
	})
}

// DashboardRevenue returns the twelve monthly revenue buckets.
func (h *Handler) DashboardRevenue(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context(), ownerFrom(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	buckets := ledger.MonthlyRevenue(payments)
	dtos := make([]MonthRevenueDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = MonthRevenueDTO{
			Month:   b.Month.String()[:3],
			Revenue: b.Revenue.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DashboardRecentPayments returns the most recent payments.
func (h *Handler) DashboardRecentPayments(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	payments, err := h.Store.ListPayments(r.Context(), ownerFrom(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	recent := ledger.RecentPayments(payments, limit)
	dtos := make([]PaymentDTO, len(recent))
	for i, p := range recent {
		dtos[i] = paymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil && status >= 500 {
		logger.Error(context.Background(), message, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps a domain error to its HTTP representation.
// Validation details are reported verbatim; records hidden by ownership
// scoping surface as plain 404s; upstream causes are logged, never leaked.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case ledger.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrContractHasDependents):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Contract has payments or invoices; remove them first"})
	case ledger.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	default:
		logger.Error(r.Context(), "request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Something went wrong, please try again"})
	}
}
