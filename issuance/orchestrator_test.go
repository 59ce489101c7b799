package issuance

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/retainer-engine/artifact"
	"github.com/warp/retainer-engine/ledger"
	"github.com/warp/retainer-engine/ledger/store"
	"github.com/warp/retainer-engine/pdf"
)

const testOwner = ledger.OwnerID("owner-1")

func date(s string) time.Time {
	t, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedContract(t *testing.T, ledgerStore *store.Memory) ledger.Contract {
	t.Helper()
	contract := ledger.Contract{
		ID:          "c-1",
		OwnerID:     testOwner,
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.test",
		Amount:      ledger.MustMoney("5000.00"),
		StartDate:   date("2024-01-01"),
		EndDate:     date("2024-12-31"),
		SignedDate:  date("2023-12-15"),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, ledgerStore.CreateContract(context.Background(), contract))
	return contract
}

func validRequest(contract ledger.Contract) Request {
	return Request{
		OwnerID:    contract.OwnerID,
		ContractID: contract.ID,
		Number:     "INV-0001",
		IssuedOn:   date("2024-01-15"),
		DueOn:      date("2024-02-15"),
		Items: []ledger.LineItem{
			{Description: "Retainer hours", Quantity: 10, Rate: ledger.MustMoney("12.00")},
			{Description: "Rush surcharge", Quantity: 1, Rate: ledger.MustMoney("5.50")},
		},
	}
}

func newTestOrchestrator() (*Orchestrator, *store.Memory, *artifact.Memory) {
	ledgerStore := store.NewMemory()
	artifacts := artifact.NewMemory()
	o := New(ledgerStore, artifacts, pdf.BusinessIdentity{
		Name:         "Warp Studio",
		AddressLines: []string{"1 Example Way"},
	})
	return o, ledgerStore, artifacts
}

func TestIssueHappyPath(t *testing.T) {
	// GIVEN an owned contract and a valid request
	o, ledgerStore, artifacts := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)

	// WHEN the invoice is issued
	invoice, err := o.Issue(context.Background(), validRequest(contract))
	require.NoError(t, err)

	// THEN the persisted record carries the computed total and UNPAID status
	assert.Equal(t, "138.05", invoice.Amount.String())
	assert.Equal(t, ledger.InvoiceUnpaid, invoice.Status)
	assert.NotEmpty(t, invoice.ID)
	assert.NotEmpty(t, invoice.PDFURL)

	// AND the artifact was uploaded before the record was written
	assert.Equal(t, 1, artifacts.Len())
	stored, err := ledgerStore.GetInvoice(context.Background(), testOwner, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.PDFURL, stored.PDFURL)
}

func TestIssueUploadedDocumentIsValidPDF(t *testing.T) {
	o, ledgerStore, artifacts := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)

	invoice, err := o.Issue(context.Background(), validRequest(contract))
	require.NoError(t, err)

	key := invoice.PDFURL[len("memory://"):]
	obj, ok := artifacts.Object(key)
	require.True(t, ok, "uploaded object not found under %s", key)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.True(t, bytes.HasPrefix(obj.Data, []byte("%PDF-")))
}

func TestIssueValidationFailureHasNoSideEffects(t *testing.T) {
	// GIVEN a request with no line items
	o, ledgerStore, artifacts := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)
	req := validRequest(contract)
	req.Items = nil

	// WHEN issuance is attempted
	_, err := o.Issue(context.Background(), req)

	// THEN it fails in the validating stage with nothing written anywhere
	var staged *Error
	require.ErrorAs(t, err, &staged)
	assert.Equal(t, StageValidating, staged.Stage)
	assert.True(t, ledger.IsValidation(err))
	assert.Equal(t, 0, artifacts.Len())
	assert.Equal(t, 0, ledgerStore.InvoiceCount())
}

func TestIssueRequiresAllFields(t *testing.T) {
	o, ledgerStore, _ := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)

	mutations := map[string]func(*Request){
		"contract_id": func(r *Request) { r.ContractID = "" },
		"number":      func(r *Request) { r.Number = "" },
		"issued_on":   func(r *Request) { r.IssuedOn = time.Time{} },
		"due_on":      func(r *Request) { r.DueOn = time.Time{} },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			req := validRequest(contract)
			mutate(&req)
			_, err := o.Issue(context.Background(), req)
			assert.True(t, ledger.IsValidation(err), "missing %s should be a validation error", name)
		})
	}
}

func TestIssueNotOwnedContractReadsAsNotFound(t *testing.T) {
	// GIVEN a contract held by a different owner
	o, ledgerStore, artifacts := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)
	req := validRequest(contract)
	req.OwnerID = "someone-else"

	// WHEN issuance is attempted
	_, err := o.Issue(context.Background(), req)

	// THEN the contract reads as missing and nothing was written
	assert.True(t, ledger.IsNotFound(err))
	assert.Equal(t, 0, artifacts.Len())
	assert.Equal(t, 0, ledgerStore.InvoiceCount())
}

func TestIssueUploadFailureLeavesZeroInvoices(t *testing.T) {
	// GIVEN an artifact store that rejects every upload
	o, ledgerStore, artifacts := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)
	artifacts.FailWith = errors.New("bucket unavailable")

	// WHEN issuance is attempted
	_, err := o.Issue(context.Background(), validRequest(contract))

	// THEN the failure is staged as an upstream error and no record exists
	var staged *Error
	require.ErrorAs(t, err, &staged)
	assert.Equal(t, StageUploading, staged.Stage)
	assert.True(t, ledger.IsUpstream(err))
	assert.Equal(t, 0, ledgerStore.InvoiceCount())
}

func TestIssuePersistFailureSurfacesStage(t *testing.T) {
	// GIVEN a ledger store that fails writes after the contract was seeded
	o, ledgerStore, artifacts := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)
	ledgerStore.FailWith = errors.New("disk full")

	_, err := o.Issue(context.Background(), validRequest(contract))

	var staged *Error
	require.ErrorAs(t, err, &staged)
	assert.Equal(t, StagePersisting, staged.Stage)
	// The artifact was already uploaded; the orphan is accepted.
	assert.Equal(t, 1, artifacts.Len())
	assert.Equal(t, 0, ledgerStore.InvoiceCount())
}

func TestIssueSlowUploadHitsTimeout(t *testing.T) {
	// GIVEN a gateway slower than the configured timeout
	o, ledgerStore, artifacts := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)
	artifacts.Delay = 200 * time.Millisecond
	o.Timeout = 10 * time.Millisecond

	_, err := o.Issue(context.Background(), validRequest(contract))

	var staged *Error
	require.ErrorAs(t, err, &staged)
	assert.Equal(t, StageUploading, staged.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, ledgerStore.InvoiceCount())
}

func TestIssueUsesConfiguredTaxRate(t *testing.T) {
	o, ledgerStore, _ := newTestOrchestrator()
	contract := seedContract(t, ledgerStore)
	o.TaxRate = ledger.MustMoney("0.20").Value

	invoice, err := o.Issue(context.Background(), validRequest(contract))
	require.NoError(t, err)

	// 125.50 subtotal + 25.10 tax at 20%
	assert.Equal(t, "150.60", invoice.Amount.String())
}
