// Package docx writes Office OpenXML word-processing documents covering the
// subset a generated report needs: styled paragraphs, formatted runs, tables
// with borders and shading, page breaks, and one header/footer pair with a
// live page number field. The output is a zip container of fixed XML parts,
// written byte-for-byte deterministically for identical input.
package docx

// Paragraph style ids defined in styles.xml.
const (
	StyleNormal   = "Normal"
	StyleTitle    = "Title"
	StyleHeading1 = "Heading1"
	StyleHeading2 = "Heading2"
)

// Paragraph alignment values.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// ContentWidth is the usable page width in twips for US Letter with one
// inch margins. Table column widths should sum to it.
const ContentWidth = 9360

type runKind int

const (
	runText runKind = iota
	runTab
	runPageField
)

// Run is a contiguous span of identically formatted text. Size is in
// half-points; zero inherits the paragraph style. Color and Shade are
// RRGGBB hex without a leading '#'.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Color  string
	Size   int
	Shade  string

	kind runKind
}

// TabStop positions a tab within a paragraph. Kind is one of "left",
// "center" or "right".
type TabStop struct {
	Pos  int
	Kind string
}

// Paragraph is a block of runs with optional style, alignment, shading and
// border decoration.
type Paragraph struct {
	style           string
	align           string
	shade           string
	borderColor     string
	pageBreakBefore bool
	hasSpacing      bool
	spacingBefore   int
	spacingAfter    int
	tabStops        []TabStop
	runs            []*Run
}

func (p *Paragraph) isBlock() {}

// SetStyle applies a named paragraph style.
func (p *Paragraph) SetStyle(id string) *Paragraph {
	p.style = id
	return p
}

// SetAlign sets horizontal alignment.
func (p *Paragraph) SetAlign(v string) *Paragraph {
	p.align = v
	return p
}

// SetShade fills the paragraph background.
func (p *Paragraph) SetShade(fill string) *Paragraph {
	p.shade = fill
	return p
}

// SetBorder draws a box border around the paragraph in the given color.
func (p *Paragraph) SetBorder(color string) *Paragraph {
	p.borderColor = color
	return p
}

// SetSpacing sets space before and after the paragraph in twips.
func (p *Paragraph) SetSpacing(before, after int) *Paragraph {
	p.hasSpacing = true
	p.spacingBefore = before
	p.spacingAfter = after
	return p
}

// SetPageBreakBefore starts the paragraph on a fresh page.
func (p *Paragraph) SetPageBreakBefore() *Paragraph {
	p.pageBreakBefore = true
	return p
}

// SetTabStops declares tab positions used by AddTab.
func (p *Paragraph) SetTabStops(stops ...TabStop) *Paragraph {
	p.tabStops = stops
	return p
}

// AddText appends a text run and returns it for formatting.
func (p *Paragraph) AddText(text string) *Run {
	r := &Run{Text: text}
	p.runs = append(p.runs, r)
	return r
}

// AddTab appends a tab character run.
func (p *Paragraph) AddTab() {
	p.runs = append(p.runs, &Run{kind: runTab})
}

// AddPageNumber appends a field that renders the current page number.
func (p *Paragraph) AddPageNumber() {
	p.runs = append(p.runs, &Run{kind: runPageField})
}

// Cell is one table cell. Fill shades the cell background.
type Cell struct {
	Fill  string
	width int
	paras []*Paragraph
}

// AddParagraph appends a paragraph to the cell.
func (c *Cell) AddParagraph() *Paragraph {
	p := &Paragraph{}
	c.paras = append(c.paras, p)
	return p
}

// Row is one table row.
type Row struct {
	header bool
	cells  []*Cell
}

// SetHeader marks the row to repeat at the top of every page.
func (r *Row) SetHeader() *Row {
	r.header = true
	return r
}

// AddCell appends an empty cell.
func (r *Row) AddCell() *Cell {
	c := &Cell{}
	r.cells = append(r.cells, c)
	return c
}

// AddText appends a cell containing a single plain paragraph and returns
// the cell for shading.
func (r *Row) AddText(text string) *Cell {
	c := r.AddCell()
	c.AddParagraph().AddText(text)
	return c
}

// AddTextF appends a cell containing a single formatted run.
func (r *Row) AddTextF(text string, f func(*Run)) *Cell {
	c := r.AddCell()
	run := c.AddParagraph().AddText(text)
	if f != nil {
		f(run)
	}
	return c
}

// Table is a bordered grid with fixed column widths in twips.
type Table struct {
	colWidths []int
	rows      []*Row
}

func (t *Table) isBlock() {}

// AddRow appends an empty row.
func (t *Table) AddRow() *Row {
	r := &Row{}
	t.rows = append(t.rows, r)
	return r
}

type pageBreak struct{}

func (pageBreak) isBlock() {}

type block interface {
	isBlock()
}

// HeaderFooter holds the paragraphs of a page header or footer.
type HeaderFooter struct {
	paras []*Paragraph
}

// AddParagraph appends a paragraph to the header or footer.
func (hf *HeaderFooter) AddParagraph() *Paragraph {
	p := &Paragraph{}
	hf.paras = append(hf.paras, p)
	return p
}

// Document is an in-memory word-processing document assembled block by
// block and serialized by Write.
type Document struct {
	blocks []block
	header *HeaderFooter
	footer *HeaderFooter
}

// New creates an empty document.
func New() *Document {
	return &Document{
		header: &HeaderFooter{},
		footer: &HeaderFooter{},
	}
}

// AddParagraph appends a body paragraph.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{}
	d.blocks = append(d.blocks, p)
	return p
}

// AddHeading appends a paragraph with one of the heading styles and the
// given text.
func (d *Document) AddHeading(style, text string) *Paragraph {
	p := d.AddParagraph().SetStyle(style)
	p.AddText(text)
	return p
}

// AddTable appends a table with the given column widths in twips.
func (d *Document) AddTable(colWidths ...int) *Table {
	t := &Table{colWidths: colWidths}
	d.blocks = append(d.blocks, t)
	return t
}

// AddPageBreak forces the following content onto a new page.
func (d *Document) AddPageBreak() {
	d.blocks = append(d.blocks, pageBreak{})
}

// Header returns the page header, rendered on every page.
func (d *Document) Header() *HeaderFooter {
	return d.header
}

// Footer returns the page footer, rendered on every page.
func (d *Document) Footer() *HeaderFooter {
	return d.footer
}
