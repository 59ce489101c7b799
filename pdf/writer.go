/*
writer.go - Minimal deterministic PDF emitter

PURPOSE:
  Serializes an accumulated Document into a self-contained PDF 1.4 byte
  buffer: catalog, page tree, two core font objects (Courier and
  Courier-Bold), one page object plus one content stream per page, and a
  cross-reference table.

DETERMINISM:
  No timestamps, no document IDs, no compression, fixed number formatting.
  Identical instruction lists serialize to identical bytes.
*/
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

var fontNames = map[Font]string{
	FontRegular: "F1",
	FontBold:    "F2",
}

// Render serializes the document into a finished, immutable PDF buffer.
func (d *Document) Render() []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, 4+2*len(d.pages))

	write := func(s string) { buf.WriteString(s) }
	beginObj := func() {
		offsets = append(offsets, buf.Len())
	}

	write("%PDF-1.4\n")

	// Object numbering: 1 catalog, 2 page tree, 3 + 4 fonts, then for page
	// i (0-based): 5+2i page, 6+2i content stream.
	pageObj := func(i int) int { return 5 + 2*i }
	contentObj := func(i int) int { return 6 + 2*i }

	beginObj()
	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, len(d.pages))
	for i := range d.pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}
	beginObj()
	write(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), len(d.pages)))

	beginObj()
	write("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>\nendobj\n")
	beginObj()
	write("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier-Bold >>\nendobj\n")

	for i, p := range d.pages {
		beginObj()
		write(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] "+
			"/Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			pageObj(i), num(PageWidth), num(PageHeight), contentObj(i)))

		stream := p.contentStream()
		beginObj()
		write(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n",
			contentObj(i), len(stream), stream))
	}

	xrefStart := buf.Len()
	write(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart))

	return buf.Bytes()
}

// contentStream emits the drawing operators for one page, rules first, then
// text, in insertion order.
func (p *page) contentStream() string {
	var sb strings.Builder
	for _, r := range p.rules {
		sb.WriteString("q\n")
		sb.WriteString(num(r.Gray) + " G\n")
		sb.WriteString(num(r.Width) + " w\n")
		sb.WriteString(num(r.X1) + " " + num(PageHeight-r.Y) + " m\n")
		sb.WriteString(num(r.X2) + " " + num(PageHeight-r.Y) + " l\n")
		sb.WriteString("S\nQ\n")
	}
	for _, t := range p.texts {
		sb.WriteString("BT\n")
		sb.WriteString("/" + fontNames[t.Font] + " " + num(t.Size) + " Tf\n")
		sb.WriteString("1 0 0 1 " + num(t.X) + " " + num(PageHeight-t.Y) + " Tm\n")
		sb.WriteString("(" + escapeText(t.Text) + ") Tj\n")
		sb.WriteString("ET\n")
	}
	return sb.String()
}

// num formats a coordinate with fixed precision so output never varies.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// escapeText escapes the characters with special meaning in PDF strings.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
