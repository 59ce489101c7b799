/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Implements the ledger persistence interface using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

OWNERSHIP SCOPING:
  Contracts carry an owner_id column and every contract query filters on it.
  Payments and invoices have no owner column of their own: their owner
  predicate JOINs through the parent contract, so a record under another
  owner's contract is simply invisible (ErrNotFound), never "forbidden".

DELETION POLICY:
  DeleteContract refuses while dependent payments or invoices exist
  (ledger.ErrContractHasDependents). Dependents must be removed explicitly
  first.

KEY TABLES:
  contracts:  Retainer agreements, the ownership root
  payments:   Amounts paid against a contract
  invoices:   Issued documents with computed totals and artifact URLs

MONEY AND DATES:
  Monetary values are stored as decimal TEXT (never floats). Calendar dates
  are stored as ISO date TEXT, creation timestamps as RFC3339 TEXT.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers do not block each other.

USAGE:
  store, err := sqlite.New("./data/retainer.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go:        Interface definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/retainer-engine/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Contracts (ownership root)
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		client_name TEXT NOT NULL,
		client_email TEXT NOT NULL,
		amount TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		signed_date TEXT NOT NULL,
		pdf_url TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_owner
		ON contracts(owner_id, created_at DESC);

	-- Payments (owned via parent contract)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		amount_paid TEXT NOT NULL,
		paid_on TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_contract
		ON payments(contract_id);
	CREATE INDEX IF NOT EXISTS idx_payments_paid_on
		ON payments(paid_on);

	-- Invoices (owned via parent contract)
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		number TEXT NOT NULL,
		amount TEXT NOT NULL,
		issued_on TEXT NOT NULL,
		due_on TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'UNPAID',
		notes TEXT NOT NULL DEFAULT '',
		pdf_url TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_contract
		ON invoices(contract_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_status
		ON invoices(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (s *Store) CreateContract(ctx context.Context, c ledger.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contracts
		(id, owner_id, client_name, client_email, amount, start_date, end_date, signed_date, pdf_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.OwnerID,
		c.ClientName,
		c.ClientEmail,
		c.Amount.Value.String(),
		c.StartDate.Format(ledger.DateLayout),
		c.EndDate.Format(ledger.DateLayout),
		c.SignedDate.Format(ledger.DateLayout),
		c.PDFURL,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

func (s *Store) GetContract(ctx context.Context, owner ledger.OwnerID, id ledger.ContractID) (*ledger.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, client_name, client_email, amount, start_date, end_date, signed_date, pdf_url, created_at
		FROM contracts
		WHERE id = ? AND owner_id = ?`,
		id, owner,
	)
	c, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

func (s *Store) ListContracts(ctx context.Context, owner ledger.OwnerID) ([]ledger.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, client_name, client_email, amount, start_date, end_date, signed_date, pdf_url, created_at
		FROM contracts
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateContract(ctx context.Context, owner ledger.OwnerID, c ledger.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE contracts
		SET client_name = ?, client_email = ?, amount = ?, start_date = ?, end_date = ?, signed_date = ?, pdf_url = ?
		WHERE id = ? AND owner_id = ?`,
		c.ClientName,
		c.ClientEmail,
		c.Amount.Value.String(),
		c.StartDate.Format(ledger.DateLayout),
		c.EndDate.Format(ledger.DateLayout),
		c.SignedDate.Format(ledger.DateLayout),
		c.PDFURL,
		c.ID, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteContract(ctx context.Context, owner ledger.OwnerID, id ledger.ContractID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contracts WHERE id = ? AND owner_id = ?", id, owner,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check contract: %w", err)
	}
	if exists == 0 {
		return ledger.ErrNotFound
	}

	var dependents int
	err = s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM payments WHERE contract_id = ?)
		     + (SELECT COUNT(*) FROM invoices WHERE contract_id = ?)`,
		id, id,
	).Scan(&dependents)
	if err != nil {
		return fmt.Errorf("failed to check dependents: %w", err)
	}
	if dependents > 0 {
		return ledger.ErrContractHasDependents
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM contracts WHERE id = ? AND owner_id = ?", id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// ownsContract reports whether owner holds the contract. Callers hold s.mu.
func (s *Store) ownsContract(ctx context.Context, owner ledger.OwnerID, id ledger.ContractID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contracts WHERE id = ? AND owner_id = ?", id, owner,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check contract ownership: %w", err)
	}
	return count > 0, nil
}

func (s *Store) CreatePayment(ctx context.Context, owner ledger.OwnerID, p ledger.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, err := s.ownsContract(ctx, owner, p.ContractID)
	if err != nil {
		return err
	}
	if !owned {
		return ledger.ErrNotFound
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payments (id, contract_id, amount_paid, paid_on, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.ContractID,
		p.AmountPaid.Value.String(),
		p.PaidOn.Format(ledger.DateLayout),
		p.Notes,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

const paymentColumns = `p.id, p.contract_id, p.amount_paid, p.paid_on, p.notes, p.created_at`

func (s *Store) GetPayment(ctx context.Context, owner ledger.OwnerID, id ledger.PaymentID) (*ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		JOIN contracts c ON c.id = p.contract_id AND c.owner_id = ?
		WHERE p.id = ?`,
		owner, id,
	)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, owner ledger.OwnerID) ([]ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		JOIN contracts c ON c.id = p.contract_id AND c.owner_id = ?
		ORDER BY p.created_at DESC, p.id DESC`,
		owner,
	)
}

func (s *Store) ListContractPayments(ctx context.Context, owner ledger.OwnerID, contractID ledger.ContractID) ([]ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned, err := s.ownsContract(ctx, owner, contractID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ledger.ErrNotFound
	}

	return s.queryPayments(ctx, `
		SELECT `+paymentColumns+`
		FROM payments p
		WHERE p.contract_id = ?
		ORDER BY p.created_at DESC, p.id DESC`,
		contractID,
	)
}

func (s *Store) UpdatePayment(ctx context.Context, owner ledger.OwnerID, p ledger.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The target contract must also be the owner's: re-pointing a payment
	// at someone else's contract is indistinguishable from a missing one.
	owned, err := s.ownsContract(ctx, owner, p.ContractID)
	if err != nil {
		return err
	}
	if !owned {
		return ledger.ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET contract_id = ?, amount_paid = ?, paid_on = ?, notes = ?
		WHERE id = ? AND contract_id IN (SELECT id FROM contracts WHERE owner_id = ?)`,
		p.ContractID,
		p.AmountPaid.Value.String(),
		p.PaidOn.Format(ledger.DateLayout),
		p.Notes,
		p.ID, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeletePayment(ctx context.Context, owner ledger.OwnerID, id ledger.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM payments
		WHERE id = ? AND contract_id IN (SELECT id FROM contracts WHERE owner_id = ?)`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireRow(res)
}

// =============================================================================
// INVOICES
// =============================================================================

func (s *Store) CreateInvoice(ctx context.Context, owner ledger.OwnerID, inv ledger.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, err := s.ownsContract(ctx, owner, inv.ContractID)
	if err != nil {
		return err
	}
	if !owned {
		return ledger.ErrNotFound
	}

	createdAt := inv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, contract_id, number, amount, issued_on, due_on, status, notes, pdf_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.ContractID,
		inv.Number,
		inv.Amount.Value.String(),
		inv.IssuedOn.Format(ledger.DateLayout),
		inv.DueOn.Format(ledger.DateLayout),
		inv.Status,
		inv.Notes,
		inv.PDFURL,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

const invoiceColumns = `i.id, i.contract_id, i.number, i.amount, i.issued_on, i.due_on, i.status, i.notes, i.pdf_url, i.created_at`

func (s *Store) GetInvoice(ctx context.Context, owner ledger.OwnerID, id ledger.InvoiceID) (*ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices i
		JOIN contracts c ON c.id = i.contract_id AND c.owner_id = ?
		WHERE i.id = ?`,
		owner, id,
	)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, owner ledger.OwnerID) ([]ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInvoices(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices i
		JOIN contracts c ON c.id = i.contract_id AND c.owner_id = ?
		ORDER BY i.created_at DESC, i.id DESC`,
		owner,
	)
}

func (s *Store) ListContractInvoices(ctx context.Context, owner ledger.OwnerID, contractID ledger.ContractID) ([]ledger.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned, err := s.ownsContract(ctx, owner, contractID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ledger.ErrNotFound
	}

	return s.queryInvoices(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices i
		WHERE i.contract_id = ?
		ORDER BY i.created_at DESC, i.id DESC`,
		contractID,
	)
}

func (s *Store) UpdateInvoiceStatus(ctx context.Context, owner ledger.OwnerID, id ledger.InvoiceID, status ledger.InvoiceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = ?
		WHERE id = ? AND contract_id IN (SELECT id FROM contracts WHERE owner_id = ?)`,
		status, id, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteInvoice(ctx context.Context, owner ledger.OwnerID, id ledger.InvoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM invoices
		WHERE id = ? AND contract_id IN (SELECT id FROM contracts WHERE owner_id = ?)`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return requireRow(res)
}

// =============================================================================
// ROW SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*ledger.Contract, error) {
	var c ledger.Contract
	var amount, start, end, signed, created string
	err := row.Scan(&c.ID, &c.OwnerID, &c.ClientName, &c.ClientEmail, &amount, &start, &end, &signed, &c.PDFURL, &created)
	if err != nil {
		return nil, err
	}
	if c.Amount, err = ledger.ParseMoney(amount); err != nil {
		return nil, fmt.Errorf("corrupt contract amount: %w", err)
	}
	if c.StartDate, err = time.Parse(ledger.DateLayout, start); err != nil {
		return nil, fmt.Errorf("corrupt contract start date: %w", err)
	}
	if c.EndDate, err = time.Parse(ledger.DateLayout, end); err != nil {
		return nil, fmt.Errorf("corrupt contract end date: %w", err)
	}
	if c.SignedDate, err = time.Parse(ledger.DateLayout, signed); err != nil {
		return nil, fmt.Errorf("corrupt contract signed date: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("corrupt contract created_at: %w", err)
	}
	return &c, nil
}

func scanPayment(row rowScanner) (*ledger.Payment, error) {
	var p ledger.Payment
	var amount, paidOn, created string
	err := row.Scan(&p.ID, &p.ContractID, &amount, &paidOn, &p.Notes, &created)
	if err != nil {
		return nil, err
	}
	if p.AmountPaid, err = ledger.ParseMoney(amount); err != nil {
		return nil, fmt.Errorf("corrupt payment amount: %w", err)
	}
	if p.PaidOn, err = time.Parse(ledger.DateLayout, paidOn); err != nil {
		return nil, fmt.Errorf("corrupt payment paid_on: %w", err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("corrupt payment created_at: %w", err)
	}
	return &p, nil
}

func scanInvoice(row rowScanner) (*ledger.Invoice, error) {
	var inv ledger.Invoice
	var amount, issued, due, created string
	err := row.Scan(&inv.ID, &inv.ContractID, &inv.Number, &amount, &issued, &due, &inv.Status, &inv.Notes, &inv.PDFURL, &created)
	if err != nil {
		return nil, err
	}
	if inv.Amount, err = ledger.ParseMoney(amount); err != nil {
		return nil, fmt.Errorf("corrupt invoice amount: %w", err)
	}
	if inv.IssuedOn, err = time.Parse(ledger.DateLayout, issued); err != nil {
		return nil, fmt.Errorf("corrupt invoice issued_on: %w", err)
	}
	if inv.DueOn, err = time.Parse(ledger.DateLayout, due); err != nil {
		return nil, fmt.Errorf("corrupt invoice due_on: %w", err)
	}
	if inv.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("corrupt invoice created_at: %w", err)
	}
	return &inv, nil
}

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]ledger.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...any) ([]ledger.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var out []ledger.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// requireRow maps a zero-row write to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
