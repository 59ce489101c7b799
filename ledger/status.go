/*
status.go - Contract lifecycle status and dashboard aggregation

PURPOSE:
  Pure functions behind the dashboard: lifecycle status per contract,
  mutually exclusive status counts, monthly revenue buckets, and invoice
  totals by status. No I/O; every function is defined for empty input.

STATUS RULES:
  Expired     now >= endDate
  EndingSoon  endDate <= now + 30 days (inclusive) and not expired
  Active      otherwise

  EndingSoon takes precedence over Active in summaries, so every contract
  is counted exactly once.

REVENUE BUCKETING:
  MonthlyRevenue always returns twelve buckets in calendar order Jan..Dec,
  keyed by month name only. Payments from different years collapse into the
  same bucket. Known limitation, kept deliberately: single-year books are
  the expected input.
*/
package ledger

import (
	"sort"
	"time"
)

// EndingSoonWindowDays is the lookahead for the "ending soon" status.
const EndingSoonWindowDays = 30

// ContractLifecycle derives the lifecycle status of a contract from its end
// date and the supplied clock. Pure function of (endDate, now).
func ContractLifecycle(c Contract, now time.Time) ContractStatus {
	if !now.Before(c.EndDate) {
		return ContractExpired
	}
	// Inclusive boundary: a contract ending exactly 30 days out is ending soon.
	if !c.EndDate.After(now.AddDate(0, 0, EndingSoonWindowDays)) {
		return ContractEndingSoon
	}
	return ContractActive
}

// StatusSummary holds mutually exclusive contract counts. The three fields
// always sum to the number of contracts summarized.
type StatusSummary struct {
	Active     int
	EndingSoon int
	Expired    int
}

func (s StatusSummary) Total() int { return s.Active + s.EndingSoon + s.Expired }

// SummarizeContracts partitions contracts by lifecycle status.
func SummarizeContracts(contracts []Contract, now time.Time) StatusSummary {
	var s StatusSummary
	for _, c := range contracts {
		switch ContractLifecycle(c, now) {
		case ContractExpired:
			s.Expired++
		case ContractEndingSoon:
			s.EndingSoon++
		default:
			s.Active++
		}
	}
	return s
}

// =============================================================================
// REVENUE AGGREGATION
// =============================================================================

// MonthRevenue is one bucket of the twelve-month revenue series.
type MonthRevenue struct {
	Month   time.Month
	Revenue Money
}

// MonthlyRevenue buckets payments into twelve canonical calendar months in
// fixed Jan..Dec order. Months with no payments report zero. The sum of all
// buckets equals the sum of all payments.
func MonthlyRevenue(payments []Payment) []MonthRevenue {
	buckets := make([]MonthRevenue, 12)
	for i := range buckets {
		buckets[i] = MonthRevenue{Month: time.Month(i + 1), Revenue: ZeroMoney()}
	}
	for _, p := range payments {
		i := int(p.PaidOn.Month()) - 1
		buckets[i].Revenue = buckets[i].Revenue.Add(p.AmountPaid)
	}
	return buckets
}

// TotalRevenue sums all payments.
func TotalRevenue(payments []Payment) Money {
	total := ZeroMoney()
	for _, p := range payments {
		total = total.Add(p.AmountPaid)
	}
	return total
}

// RecentPayments returns up to limit payments, newest paid-on date first.
// Ties break on creation time, then ID, so the order is stable.
func RecentPayments(payments []Payment, limit int) []Payment {
	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PaidOn.Equal(sorted[j].PaidOn) {
			return sorted[i].PaidOn.After(sorted[j].PaidOn)
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if limit >= 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// =============================================================================
// INVOICE AGGREGATION
// =============================================================================

// InvoiceTotalByStatus sums invoice amounts over invoices whose effective
// status matches. Backs the paid/pending/overdue dashboard cards.
func InvoiceTotalByStatus(invoices []Invoice, status InvoiceStatus, now time.Time) Money {
	total := ZeroMoney()
	for _, inv := range invoices {
		if inv.EffectiveStatus(now) == status {
			total = total.Add(inv.Amount)
		}
	}
	return total
}
