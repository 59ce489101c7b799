/*
Package pdf renders fixed-format paginated documents deterministically.

PURPOSE:
  Provides a small layout engine and a minimal PDF writer for the invoice
  document. Rendering the same input twice produces byte-identical output,
  which makes golden-file testing possible.

DESIGN:
  A Document accumulates explicit layout instructions (text at a position,
  horizontal rules, page breaks). Every instruction carries its own
  coordinates; the Document keeps no cursor, so nothing leaks between
  calls. A single render pass then consumes the instruction list and emits
  the bytes.

COORDINATES:
  Callers work top-down: y is the text baseline measured from the top edge
  of the page, in points. The writer converts to PDF's bottom-up space.

FONTS:
  Core Courier and Courier-Bold only. Monospaced metrics (0.6 em advance)
  make right-alignment exact without embedding width tables.

SEE ALSO:
  - writer.go:  PDF byte emission
  - invoice.go: Invoice-specific layout
*/
package pdf

// A4 page geometry in PostScript points, with the fixed document margin.
const (
	PageWidth  = 595.28
	PageHeight = 841.89
	Margin     = 50.0
)

// charAdvance is the Courier glyph advance as a fraction of the font size.
const charAdvance = 0.6

type Font int

const (
	FontRegular Font = iota
	FontBold
)

type textOp struct {
	X, Y float64 // baseline, y measured down from the top edge
	Size float64
	Font Font
	Text string
}

type ruleOp struct {
	X1, X2, Y float64
	Width     float64
	Gray      float64 // stroke gray level, 0 black .. 1 white
}

type page struct {
	texts []textOp
	rules []ruleOp
}

// Document is an accumulating list of layout instructions.
type Document struct {
	pages []*page
}

// NewDocument creates a document with one empty page.
func NewDocument() *Document {
	return &Document{pages: []*page{{}}}
}

// NewPage starts a fresh page; subsequent instructions land on it.
func (d *Document) NewPage() {
	d.pages = append(d.pages, &page{})
}

// PageCount reports the number of pages accumulated so far.
func (d *Document) PageCount() int { return len(d.pages) }

func (d *Document) current() *page { return d.pages[len(d.pages)-1] }

// Text places a string with its left edge at x and baseline at y.
func (d *Document) Text(x, y, size float64, font Font, text string) {
	if text == "" {
		return
	}
	p := d.current()
	p.texts = append(p.texts, textOp{X: x, Y: y, Size: size, Font: font, Text: text})
}

// TextRight places a string with its right edge at right and baseline at y.
func (d *Document) TextRight(right, y, size float64, font Font, text string) {
	d.Text(right-TextWidth(text, size), y, size, font, text)
}

// Rule draws a horizontal line from x1 to x2 at height y.
func (d *Document) Rule(x1, x2, y, width, gray float64) {
	p := d.current()
	p.rules = append(p.rules, ruleOp{X1: x1, X2: x2, Y: y, Width: width, Gray: gray})
}

// TextWidth returns the rendered width of text at the given size. Exact for
// the monospaced core fonts this package uses.
func TextWidth(text string, size float64) float64 {
	return charAdvance * size * float64(len([]rune(text)))
}

// MaxChars returns how many characters fit into width at the given size.
func MaxChars(width, size float64) int {
	return int(width / (charAdvance * size))
}
