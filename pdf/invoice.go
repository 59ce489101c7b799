/*
invoice.go - Invoice document layout

PURPOSE:
  Builds the fixed-format invoice document: title block, From/To party
  block, line-item table, totals block, optional notes. Layout instructions
  go into a Document; Render turns them into the final bytes.

PAGINATION:
  Rows that would cross the bottom margin start a new page. The table
  header repeats on continuation pages, the title block does not. Every
  item appears exactly once; the totals block appears exactly once, on the
  last page.

AMOUNTS:
  Each table row recomputes quantity * unit price at render time from the
  computed line it is given, so the rendered figure always matches the
  calculator's.
*/
package pdf

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/retainer-engine/ledger"
)

// Layout constants for the invoice document, in points.
const (
	titleSize = 26
	bodySize  = 12
	rowSize   = 10

	lineStep  = 15
	rowStep   = 15
	ruleGray  = 0.67
	ruleWidth = 1

	// Table column geometry: description is left-aligned at the margin,
	// the numeric columns are right-aligned at these edges.
	qtyRight  = Margin + 320
	unitRight = Margin + 400
	bottomY   = PageHeight - Margin
)

// BusinessIdentity is the fixed "From" block. Configuration, not data.
type BusinessIdentity struct {
	Name         string
	AddressLines []string
}

// InvoiceData is everything the renderer needs. Totals must already be
// computed; the renderer performs no validation and no I/O.
type InvoiceData struct {
	Business   BusinessIdentity
	ClientName string
	Number     string
	IssuedOn   time.Time
	DueOn      time.Time
	Notes      string
	Totals     ledger.InvoiceTotals
	TaxRate    decimal.Decimal
}

// RenderInvoice lays out and serializes the invoice in one deterministic
// pass.
func RenderInvoice(d InvoiceData) []byte {
	return BuildInvoice(d).Render()
}

// BuildInvoice accumulates the layout instructions for the invoice.
func BuildInvoice(d InvoiceData) *Document {
	doc := NewDocument()
	right := PageWidth - Margin

	// Title block: document title left, invoice metadata right-aligned.
	doc.Text(Margin, 66, titleSize, FontRegular, "TAX INVOICE")
	doc.TextRight(right, 50, rowSize, FontRegular, "Invoice #: "+d.Number)
	doc.TextRight(right, 64, rowSize, FontRegular, "Issue Date: "+d.IssuedOn.Format(ledger.DateLayout))
	doc.TextRight(right, 78, rowSize, FontRegular, "Due Date: "+d.DueOn.Format(ledger.DateLayout))

	// Party block.
	y := 120.0
	doc.Text(Margin, y, bodySize, FontRegular, "From:")
	y += lineStep
	doc.Text(Margin, y, bodySize, FontRegular, d.Business.Name)
	for _, line := range d.Business.AddressLines {
		y += lineStep
		doc.Text(Margin, y, bodySize, FontRegular, line)
	}
	y += 2 * lineStep
	doc.Text(Margin, y, bodySize, FontRegular, "To:")
	y += lineStep
	doc.Text(Margin, y, bodySize, FontRegular, d.ClientName)
	y += 2 * lineStep

	y = writeTableHeader(doc, y)

	for _, line := range d.Totals.Lines {
		if y+rowStep > bottomY {
			doc.NewPage()
			y = writeTableHeader(doc, Margin+rowSize)
		}
		amount := line.Rate.MulInt(line.Quantity).Round2()
		doc.Text(Margin, y, rowSize, FontRegular, line.Description)
		doc.TextRight(qtyRight, y, rowSize, FontRegular, itoa(line.Quantity))
		doc.TextRight(unitRight, y, rowSize, FontRegular, line.Rate.String())
		doc.TextRight(right, y, rowSize, FontRegular, amount.String())
		y += rowStep
	}

	// Totals block, always on the last page as one unit.
	if y+3*lineStep+2*lineStep > bottomY {
		doc.NewPage()
		y = Margin + bodySize
	}
	y += lineStep
	doc.TextRight(unitRight, y, bodySize, FontRegular, "Subtotal:")
	doc.TextRight(right, y, bodySize, FontRegular, d.Totals.Subtotal.String())
	y += lineStep
	doc.TextRight(unitRight, y, bodySize, FontRegular, taxLabel(d.TaxRate))
	doc.TextRight(right, y, bodySize, FontRegular, d.Totals.Tax.String())
	y += lineStep
	doc.TextRight(unitRight, y, bodySize, FontBold, "Total:")
	doc.TextRight(right, y, bodySize, FontBold, d.Totals.Total.String())

	if d.Notes != "" {
		y += 3 * lineStep
		if y > bottomY {
			doc.NewPage()
			y = Margin + rowSize
		}
		doc.Text(Margin, y, rowSize, FontRegular, "Notes:")
		for _, line := range wrap(d.Notes, MaxChars(PageWidth-2*Margin, rowSize)) {
			y += lineStep
			if y > bottomY {
				doc.NewPage()
				y = Margin + rowSize
			}
			doc.Text(Margin, y, rowSize, FontRegular, line)
		}
	}

	return doc
}

// writeTableHeader emits the column headings and separator rule, returning
// the baseline for the first row beneath them.
func writeTableHeader(doc *Document, y float64) float64 {
	right := PageWidth - Margin
	doc.Text(Margin, y, bodySize, FontRegular, "Description")
	doc.TextRight(qtyRight, y, bodySize, FontRegular, "Qty")
	doc.TextRight(unitRight, y, bodySize, FontRegular, "Unit Price")
	doc.TextRight(right, y, bodySize, FontRegular, "Amount")
	doc.Rule(Margin, right, y+5, ruleWidth, ruleGray)
	return y + rowStep + 5
}

func taxLabel(rate decimal.Decimal) string {
	return "Tax (" + rate.Mul(decimal.NewFromInt(100)).String() + "%):"
}

func itoa(n int) string {
	return decimal.NewFromInt(int64(n)).String()
}

// wrap splits text into greedy word-wrapped lines of at most width chars.
// Words longer than the width get a line of their own.
func wrap(text string, width int) []string {
	var lines []string
	var current string
	for _, word := range splitWords(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func splitWords(text string) []string {
	var words []string
	var w string
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			if w != "" {
				words = append(words, w)
				w = ""
			}
			continue
		}
		w += string(r)
	}
	if w != "" {
		words = append(words, w)
	}
	return words
}
