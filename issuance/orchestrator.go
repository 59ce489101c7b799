/*
Package issuance orchestrates invoice creation end to end.

PURPOSE:
  Composes the calculator, the document renderer, the artifact store and
  the ledger store into one staged pipeline:

    Validating -> Computing -> Rendering -> Uploading -> Persisting -> Done

  Any stage's failure aborts the remaining stages and surfaces as a staged
  error; no partial invoice record is ever left behind and nothing is
  retried automatically (retries are the caller's re-submission).

ORDERING GUARANTEE:
  The document is durably stored before the record is committed, so a
  successful ledger write never references a nonexistent artifact. A crash
  between upload and persist can strand an unreferenced object; artifacts
  are cheap and orphan cleanup is out of scope.

TIMEOUTS:
  Upload and persist are bounded-latency I/O. Each is wrapped in the
  configured timeout so a stuck collaborator surfaces as a staged upstream
  failure instead of hanging the request.
*/
package issuance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/retainer-engine/artifact"
	"github.com/warp/retainer-engine/ledger"
	"github.com/warp/retainer-engine/pdf"
)

// Stage identifies where in the pipeline an issuance is, or failed.
type Stage string

const (
	StageValidating Stage = "validating"
	StageComputing  Stage = "computing"
	StageRendering  Stage = "rendering"
	StageUploading  Stage = "uploading"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
)

// Error reports which stage an issuance failed in.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("issuance failed while %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultTimeout bounds each upstream call (upload, persist).
const DefaultTimeout = 30 * time.Second

// Orchestrator holds the collaborators one issuance runs against. Stateless
// between calls; concurrent issuances are independent.
type Orchestrator struct {
	Store     ledger.Store
	Artifacts artifact.Store
	Business  pdf.BusinessIdentity
	TaxRate   decimal.Decimal
	Timeout   time.Duration
}

// New wires an orchestrator with the default tax rate and timeout.
func New(store ledger.Store, artifacts artifact.Store, business pdf.BusinessIdentity) *Orchestrator {
	return &Orchestrator{
		Store:     store,
		Artifacts: artifacts,
		Business:  business,
		TaxRate:   ledger.DefaultTaxRate,
		Timeout:   DefaultTimeout,
	}
}

// Request is one invoice issuance submission.
type Request struct {
	OwnerID    ledger.OwnerID
	ContractID ledger.ContractID
	Number     string
	IssuedOn   time.Time
	DueOn      time.Time
	Notes      string
	Items      []ledger.LineItem
}

// Issue runs the full pipeline and returns the persisted invoice. All
// validation and ownership checks happen before any side effect.
func (o *Orchestrator) Issue(ctx context.Context, req Request) (*ledger.Invoice, error) {
	// Validating
	if err := o.validate(req); err != nil {
		return nil, &Error{Stage: StageValidating, Err: err}
	}
	contract, err := o.Store.GetContract(ctx, req.OwnerID, req.ContractID)
	if err != nil {
		return nil, &Error{Stage: StageValidating, Err: err}
	}

	// Computing
	totals := ledger.ComputeInvoiceTotals(req.Items, o.taxRate())

	// Rendering
	document := pdf.RenderInvoice(pdf.InvoiceData{
		Business:   o.Business,
		ClientName: contract.ClientName,
		Number:     req.Number,
		IssuedOn:   req.IssuedOn,
		DueOn:      req.DueOn,
		Notes:      req.Notes,
		Totals:     totals,
		TaxRate:    o.taxRate(),
	})
	if len(document) == 0 {
		return nil, &Error{Stage: StageRendering, Err: fmt.Errorf("renderer produced no output")}
	}

	// Uploading
	key := artifact.KeyFor(artifact.NamespaceInvoices, req.Number+".pdf")
	url, err := o.withTimeout(ctx, func(ctx context.Context) (string, error) {
		return o.Artifacts.Put(ctx, key, document, "application/pdf")
	})
	if err != nil {
		return nil, &Error{Stage: StageUploading, Err: &ledger.UpstreamError{System: "artifact-store", Cause: err}}
	}

	// Persisting
	invoice := ledger.Invoice{
		ID:         ledger.InvoiceID(uuid.NewString()),
		ContractID: req.ContractID,
		Number:     req.Number,
		Amount:     totals.Total,
		IssuedOn:   req.IssuedOn,
		DueOn:      req.DueOn,
		Status:     ledger.InvoiceUnpaid,
		Notes:      req.Notes,
		PDFURL:     url,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = o.withTimeout(ctx, func(ctx context.Context) (string, error) {
		return "", o.Store.CreateInvoice(ctx, req.OwnerID, invoice)
	})
	if err != nil {
		return nil, &Error{Stage: StagePersisting, Err: err}
	}

	return &invoice, nil
}

func (o *Orchestrator) validate(req Request) error {
	if req.ContractID == "" {
		return &ledger.ValidationError{Field: "contract_id", Reason: "required"}
	}
	if req.Number == "" {
		return &ledger.ValidationError{Field: "number", Reason: "required"}
	}
	if req.IssuedOn.IsZero() {
		return &ledger.ValidationError{Field: "issued_on", Reason: "required"}
	}
	if req.DueOn.IsZero() {
		return &ledger.ValidationError{Field: "due_on", Reason: "required"}
	}
	return ledger.ValidateLineItems(req.Items)
}

func (o *Orchestrator) taxRate() decimal.Decimal {
	if o.TaxRate.IsZero() {
		return ledger.DefaultTaxRate
	}
	return o.TaxRate
}

func (o *Orchestrator) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *Orchestrator) withTimeout(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout())
	defer cancel()
	return fn(ctx)
}
