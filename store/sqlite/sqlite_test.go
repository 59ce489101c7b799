package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/retainer-engine/ledger"
)

const (
	owner    = ledger.OwnerID("owner-1")
	intruder = ledger.OwnerID("owner-2")
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(s string) time.Time {
	t, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testContract(id string, ownerID ledger.OwnerID) ledger.Contract {
	return ledger.Contract{
		ID:          ledger.ContractID(id),
		OwnerID:     ownerID,
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.test",
		Amount:      ledger.MustMoney("5000.00"),
		StartDate:   date("2024-01-01"),
		EndDate:     date("2024-12-31"),
		SignedDate:  date("2023-12-15"),
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func testPayment(id, contractID string) ledger.Payment {
	return ledger.Payment{
		ID:         ledger.PaymentID(id),
		ContractID: ledger.ContractID(contractID),
		AmountPaid: ledger.MustMoney("1250.50"),
		PaidOn:     date("2024-02-01"),
		Notes:      "February retainer",
		CreatedAt:  time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func testInvoice(id, contractID string) ledger.Invoice {
	return ledger.Invoice{
		ID:         ledger.InvoiceID(id),
		ContractID: ledger.ContractID(contractID),
		Number:     "INV-0001",
		Amount:     ledger.MustMoney("138.05"),
		IssuedOn:   date("2024-01-15"),
		DueOn:      date("2024-02-15"),
		Status:     ledger.InvoiceUnpaid,
		Notes:      "Net 30",
		PDFURL:     "https://artifacts.test/invoices/x.pdf",
		CreatedAt:  time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// CONTRACTS
// =============================================================================

func TestContractRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := testContract("c-1", owner)
	require.NoError(t, s.CreateContract(ctx, want))

	got, err := s.GetContract(ctx, owner, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.ClientName, got.ClientName)
	assert.Equal(t, want.ClientEmail, got.ClientEmail)
	assert.Equal(t, "5000.00", got.Amount.String())
	assert.True(t, got.StartDate.Equal(want.StartDate))
	assert.True(t, got.EndDate.Equal(want.EndDate))
	assert.True(t, got.SignedDate.Equal(want.SignedDate))
}

func TestGetContractScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))

	// Another owner's lookup reads as missing, not forbidden.
	_, err := s.GetContract(ctx, intruder, "c-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestListContractsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testContract("c-old", owner)
	older.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testContract("c-new", owner)
	newer.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	other := testContract("c-other", intruder)

	require.NoError(t, s.CreateContract(ctx, older))
	require.NoError(t, s.CreateContract(ctx, newer))
	require.NoError(t, s.CreateContract(ctx, other))

	got, err := s.ListContracts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ledger.ContractID("c-new"), got[0].ID)
	assert.Equal(t, ledger.ContractID("c-old"), got[1].ID)
}

func TestUpdateContract(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContract("c-1", owner)
	require.NoError(t, s.CreateContract(ctx, c))

	c.ClientName = "Acme Holdings"
	c.Amount = ledger.MustMoney("7500.00")
	require.NoError(t, s.UpdateContract(ctx, owner, c))

	got, err := s.GetContract(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", got.ClientName)
	assert.Equal(t, "7500.00", got.Amount.String())

	// The other owner cannot touch it.
	assert.ErrorIs(t, s.UpdateContract(ctx, intruder, c), ledger.ErrNotFound)
}

func TestDeleteContractBlockedByDependents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))
	require.NoError(t, s.CreatePayment(ctx, owner, testPayment("p-1", "c-1")))

	// GIVEN a dependent payment, deletion is refused
	err := s.DeleteContract(ctx, owner, "c-1")
	assert.ErrorIs(t, err, ledger.ErrContractHasDependents)

	// WHEN the dependent is removed, deletion succeeds
	require.NoError(t, s.DeletePayment(ctx, owner, "p-1"))
	require.NoError(t, s.DeleteContract(ctx, owner, "c-1"))

	_, err = s.GetContract(ctx, owner, "c-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDeleteContractBlockedByInvoice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))
	require.NoError(t, s.CreateInvoice(ctx, owner, testInvoice("i-1", "c-1")))

	assert.ErrorIs(t, s.DeleteContract(ctx, owner, "c-1"), ledger.ErrContractHasDependents)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestPaymentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))
	want := testPayment("p-1", "c-1")
	require.NoError(t, s.CreatePayment(ctx, owner, want))

	got, err := s.GetPayment(ctx, owner, want.ID)
	require.NoError(t, err)
	assert.Equal(t, "1250.50", got.AmountPaid.String())
	assert.True(t, got.PaidOn.Equal(want.PaidOn))
	assert.Equal(t, want.Notes, got.Notes)
}

func TestCreatePaymentRequiresOwnedContract(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))

	// Recording against another owner's contract reads as missing.
	err := s.CreatePayment(ctx, intruder, testPayment("p-1", "c-1"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	// And against a contract that does not exist at all.
	err = s.CreatePayment(ctx, owner, testPayment("p-2", "c-ghost"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestPaymentsScopedThroughParentContract(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-mine", owner)))
	require.NoError(t, s.CreateContract(ctx, testContract("c-theirs", intruder)))
	require.NoError(t, s.CreatePayment(ctx, owner, testPayment("p-mine", "c-mine")))
	require.NoError(t, s.CreatePayment(ctx, intruder, testPayment("p-theirs", "c-theirs")))

	mine, err := s.ListPayments(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, ledger.PaymentID("p-mine"), mine[0].ID)

	// Reading or deleting the other owner's payment reads as missing.
	_, err = s.GetPayment(ctx, owner, "p-theirs")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, s.DeletePayment(ctx, owner, "p-theirs"), ledger.ErrNotFound)
}

func TestListContractPayments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))
	require.NoError(t, s.CreateContract(ctx, testContract("c-2", owner)))
	require.NoError(t, s.CreatePayment(ctx, owner, testPayment("p-1", "c-1")))
	require.NoError(t, s.CreatePayment(ctx, owner, testPayment("p-2", "c-2")))

	got, err := s.ListContractPayments(ctx, owner, "c-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ledger.PaymentID("p-1"), got[0].ID)

	_, err = s.ListContractPayments(ctx, intruder, "c-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestUpdatePaymentCannotRepointAcrossOwners(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-mine", owner)))
	require.NoError(t, s.CreateContract(ctx, testContract("c-theirs", intruder)))
	require.NoError(t, s.CreatePayment(ctx, owner, testPayment("p-1", "c-mine")))

	p := testPayment("p-1", "c-theirs")
	assert.ErrorIs(t, s.UpdatePayment(ctx, owner, p), ledger.ErrNotFound)
}

// =============================================================================
// INVOICES
// =============================================================================

func TestInvoiceRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))
	want := testInvoice("i-1", "c-1")
	require.NoError(t, s.CreateInvoice(ctx, owner, want))

	got, err := s.GetInvoice(ctx, owner, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Number, got.Number)
	assert.Equal(t, "138.05", got.Amount.String())
	assert.Equal(t, ledger.InvoiceUnpaid, got.Status)
	assert.Equal(t, want.PDFURL, got.PDFURL)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))
	require.NoError(t, s.CreateInvoice(ctx, owner, testInvoice("i-1", "c-1")))

	require.NoError(t, s.UpdateInvoiceStatus(ctx, owner, "i-1", ledger.InvoicePaid))

	got, err := s.GetInvoice(ctx, owner, "i-1")
	require.NoError(t, err)
	assert.Equal(t, ledger.InvoicePaid, got.Status)

	// The other owner's attempt reads as missing and changes nothing.
	err = s.UpdateInvoiceStatus(ctx, intruder, "i-1", ledger.InvoiceUnpaid)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDeleteInvoice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateContract(ctx, testContract("c-1", owner)))
	require.NoError(t, s.CreateInvoice(ctx, owner, testInvoice("i-1", "c-1")))

	assert.ErrorIs(t, s.DeleteInvoice(ctx, intruder, "i-1"), ledger.ErrNotFound)
	require.NoError(t, s.DeleteInvoice(ctx, owner, "i-1"))

	_, err := s.GetInvoice(ctx, owner, "i-1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestMoneyPrecisionSurvivesStorage(t *testing.T) {
	// GIVEN an amount that floats cannot represent exactly
	s := newTestStore(t)
	ctx := context.Background()

	c := testContract("c-1", owner)
	c.Amount = ledger.MustMoney("0.10")
	require.NoError(t, s.CreateContract(ctx, c))

	p := testPayment("p-1", "c-1")
	p.AmountPaid = ledger.MustMoney("0.20")
	require.NoError(t, s.CreatePayment(ctx, owner, p))

	gotC, err := s.GetContract(ctx, owner, "c-1")
	require.NoError(t, err)
	gotP, err := s.GetPayment(ctx, owner, "p-1")
	require.NoError(t, err)

	// THEN the decimal strings round-trip exactly
	assert.Equal(t, "0.10", gotC.Amount.String())
	assert.Equal(t, "0.30", gotC.Amount.Add(gotP.AmountPaid).String())
}
