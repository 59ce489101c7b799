// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/retainer-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	contracts map[ledger.ContractID]ledger.Contract
	payments  map[ledger.PaymentID]ledger.Payment
	invoices  map[ledger.InvoiceID]ledger.Invoice

	// FailWith, when set, makes every write fail. Lets tests exercise
	// upstream-failure paths.
	FailWith error
}

func NewMemory() *Memory {
	return &Memory{
		contracts: make(map[ledger.ContractID]ledger.Contract),
		payments:  make(map[ledger.PaymentID]ledger.Payment),
		invoices:  make(map[ledger.InvoiceID]ledger.Invoice),
	}
}

// ownedContract returns the contract only if it belongs to owner. Missing
// and not-owned are indistinguishable to the caller.
func (m *Memory) ownedContract(owner ledger.OwnerID, id ledger.ContractID) (ledger.Contract, bool) {
	c, ok := m.contracts[id]
	if !ok || c.OwnerID != owner {
		return ledger.Contract{}, false
	}
	return c, true
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (m *Memory) CreateContract(_ context.Context, c ledger.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return &ledger.UpstreamError{System: "ledger-store", Cause: m.FailWith}
	}
	m.contracts[c.ID] = c
	return nil
}

func (m *Memory) GetContract(_ context.Context, owner ledger.OwnerID, id ledger.ContractID) (*ledger.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.ownedContract(owner, id)
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) ListContracts(_ context.Context, owner ledger.OwnerID) ([]ledger.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Contract
	for _, c := range m.contracts {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	sortByCreatedDesc(out, func(c ledger.Contract) (int64, string) { return c.CreatedAt.UnixNano(), string(c.ID) })
	return out, nil
}

func (m *Memory) UpdateContract(_ context.Context, owner ledger.OwnerID, c ledger.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return &ledger.UpstreamError{System: "ledger-store", Cause: m.FailWith}
	}
	existing, ok := m.ownedContract(owner, c.ID)
	if !ok {
		return ledger.ErrNotFound
	}
	c.OwnerID = existing.OwnerID
	c.CreatedAt = existing.CreatedAt
	m.contracts[c.ID] = c
	return nil
}

func (m *Memory) DeleteContract(_ context.Context, owner ledger.OwnerID, id ledger.ContractID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ownedContract(owner, id); !ok {
		return ledger.ErrNotFound
	}
	for _, p := range m.payments {
		if p.ContractID == id {
			return ledger.ErrContractHasDependents
		}
	}
	for _, inv := range m.invoices {
		if inv.ContractID == id {
			return ledger.ErrContractHasDependents
		}
	}
	delete(m.contracts, id)
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) CreatePayment(_ context.Context, owner ledger.OwnerID, p ledger.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return &ledger.UpstreamError{System: "ledger-store", Cause: m.FailWith}
	}
	if _, ok := m.ownedContract(owner, p.ContractID); !ok {
		return ledger.ErrNotFound
	}
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) GetPayment(_ context.Context, owner ledger.OwnerID, id ledger.PaymentID) (*ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if _, owned := m.ownedContract(owner, p.ContractID); !owned {
		return nil, ledger.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPayments(_ context.Context, owner ledger.OwnerID) ([]ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Payment
	for _, p := range m.payments {
		if _, owned := m.ownedContract(owner, p.ContractID); owned {
			out = append(out, p)
		}
	}
	sortByCreatedDesc(out, func(p ledger.Payment) (int64, string) { return p.CreatedAt.UnixNano(), string(p.ID) })
	return out, nil
}

func (m *Memory) ListContractPayments(_ context.Context, owner ledger.OwnerID, contractID ledger.ContractID) ([]ledger.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, owned := m.ownedContract(owner, contractID); !owned {
		return nil, ledger.ErrNotFound
	}
	var out []ledger.Payment
	for _, p := range m.payments {
		if p.ContractID == contractID {
			out = append(out, p)
		}
	}
	sortByCreatedDesc(out, func(p ledger.Payment) (int64, string) { return p.CreatedAt.UnixNano(), string(p.ID) })
	return out, nil
}

func (m *Memory) UpdatePayment(_ context.Context, owner ledger.OwnerID, p ledger.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.payments[p.ID]
	if !ok {
		return ledger.ErrNotFound
	}
	if _, owned := m.ownedContract(owner, existing.ContractID); !owned {
		return ledger.ErrNotFound
	}
	// A payment may be re-pointed, but only at a contract the owner holds.
	if _, owned := m.ownedContract(owner, p.ContractID); !owned {
		return ledger.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) DeletePayment(_ context.Context, owner ledger.OwnerID, id ledger.PaymentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if _, owned := m.ownedContract(owner, p.ContractID); !owned {
		return ledger.ErrNotFound
	}
	delete(m.payments, id)
	return nil
}

// =============================================================================
// INVOICES
// =============================================================================

func (m *Memory) CreateInvoice(_ context.Context, owner ledger.OwnerID, inv ledger.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return &ledger.UpstreamError{System: "ledger-store", Cause: m.FailWith}
	}
	if _, ok := m.ownedContract(owner, inv.ContractID); !ok {
		return ledger.ErrNotFound
	}
	m.invoices[inv.ID] = inv
	return nil
}

func (m *Memory) GetInvoice(_ context.Context, owner ledger.OwnerID, id ledger.InvoiceID) (*ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if _, owned := m.ownedContract(owner, inv.ContractID); !owned {
		return nil, ledger.ErrNotFound
	}
	return &inv, nil
}

func (m *Memory) ListInvoices(_ context.Context, owner ledger.OwnerID) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ledger.Invoice
	for _, inv := range m.invoices {
		if _, owned := m.ownedContract(owner, inv.ContractID); owned {
			out = append(out, inv)
		}
	}
	sortByCreatedDesc(out, func(i ledger.Invoice) (int64, string) { return i.CreatedAt.UnixNano(), string(i.ID) })
	return out, nil
}

func (m *Memory) ListContractInvoices(_ context.Context, owner ledger.OwnerID, contractID ledger.ContractID) ([]ledger.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, owned := m.ownedContract(owner, contractID); !owned {
		return nil, ledger.ErrNotFound
	}
	var out []ledger.Invoice
	for _, inv := range m.invoices {
		if inv.ContractID == contractID {
			out = append(out, inv)
		}
	}
	sortByCreatedDesc(out, func(i ledger.Invoice) (int64, string) { return i.CreatedAt.UnixNano(), string(i.ID) })
	return out, nil
}

func (m *Memory) UpdateInvoiceStatus(_ context.Context, owner ledger.OwnerID, id ledger.InvoiceID, status ledger.InvoiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if _, owned := m.ownedContract(owner, inv.ContractID); !owned {
		return ledger.ErrNotFound
	}
	inv.Status = status
	m.invoices[id] = inv
	return nil
}

func (m *Memory) DeleteInvoice(_ context.Context, owner ledger.OwnerID, id ledger.InvoiceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return ledger.ErrNotFound
	}
	if _, owned := m.ownedContract(owner, inv.ContractID); !owned {
		return ledger.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

// InvoiceCount reports how many invoices are stored, owner-agnostic. Used by
// tests verifying that failed issuance leaves zero writes behind.
func (m *Memory) InvoiceCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.invoices)
}

// sortByCreatedDesc orders newest-created first with a stable ID tiebreak.
func sortByCreatedDesc[T any](items []T, key func(T) (int64, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti > tj
		}
		return idi > idj
	})
}
