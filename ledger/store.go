/*
store.go - Persistence interface for the ledger

PURPOSE:
  Defines the storage contract the rest of the system programs against.
  Implementations: store/sqlite (production) and ledger/store (in-memory,
  tests and dev).

OWNERSHIP SCOPING:
  Every operation takes the requesting owner explicitly. Contracts are
  scoped directly on their owner column; payments and invoices are scoped
  through their parent contract. A record that exists but belongs to a
  different owner behaves exactly like a missing record (ErrNotFound), so
  callers cannot probe for other owners' data.

DELETION POLICY:
  DeleteContract fails with ErrContractHasDependents while any payment or
  invoice still references the contract. No cascades.

SEE ALSO:
  - store/memory.go:       In-memory implementation
  - store/sqlite/sqlite.go: SQLite implementation
*/
package ledger

import (
	"context"
)

// Store is the transactional record store holding contracts, payments and
// invoices. Single-record creates and updates are atomic; consistency across
// records is the implementation's concern, not the caller's.
type Store interface {
	// Contracts
	CreateContract(ctx context.Context, c Contract) error
	GetContract(ctx context.Context, owner OwnerID, id ContractID) (*Contract, error)
	ListContracts(ctx context.Context, owner OwnerID) ([]Contract, error)
	UpdateContract(ctx context.Context, owner OwnerID, c Contract) error
	DeleteContract(ctx context.Context, owner OwnerID, id ContractID) error

	// Payments (owner predicate joins through the parent contract)
	CreatePayment(ctx context.Context, owner OwnerID, p Payment) error
	GetPayment(ctx context.Context, owner OwnerID, id PaymentID) (*Payment, error)
	ListPayments(ctx context.Context, owner OwnerID) ([]Payment, error)
	ListContractPayments(ctx context.Context, owner OwnerID, contractID ContractID) ([]Payment, error)
	UpdatePayment(ctx context.Context, owner OwnerID, p Payment) error
	DeletePayment(ctx context.Context, owner OwnerID, id PaymentID) error

	// Invoices (owner predicate joins through the parent contract)
	CreateInvoice(ctx context.Context, owner OwnerID, inv Invoice) error
	GetInvoice(ctx context.Context, owner OwnerID, id InvoiceID) (*Invoice, error)
	ListInvoices(ctx context.Context, owner OwnerID) ([]Invoice, error)
	ListContractInvoices(ctx context.Context, owner OwnerID, contractID ContractID) ([]Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, owner OwnerID, id InvoiceID, status InvoiceStatus) error
	DeleteInvoice(ctx context.Context, owner OwnerID, id InvoiceID) error
}
