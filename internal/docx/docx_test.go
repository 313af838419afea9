package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(content)
		}
	}
	t.Fatalf("part %s not found in archive", name)
	return ""
}

func TestWriteProducesAllParts(t *testing.T) {
	d := New()
	d.AddParagraph().AddText("hello")

	data, err := d.Bytes()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/_rels/document.xml.rels",
		"word/styles.xml",
		"word/header1.xml",
		"word/footer1.xml",
	}, names)
}

func TestParagraphFormatting(t *testing.T) {
	d := New()
	d.AddHeading(StyleHeading1, "Risk Assessment")

	p := d.AddParagraph().SetAlign(AlignCenter).SetShade("F2F2F2").SetBorder("C00000")
	r := p.AddText("CONFIDENTIAL")
	r.Bold = true
	r.Color = "C00000"
	r.Size = 28

	data, err := d.Bytes()
	require.NoError(t, err)
	doc := readPart(t, data, "word/document.xml")

	assert.Contains(t, doc, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, doc, `Risk Assessment`)
	assert.Contains(t, doc, `<w:jc w:val="center"/>`)
	assert.Contains(t, doc, `<w:shd w:val="clear" w:color="auto" w:fill="F2F2F2"/>`)
	assert.Contains(t, doc, `<w:pBdr>`)
	assert.Contains(t, doc, `<w:b/>`)
	assert.Contains(t, doc, `<w:color w:val="C00000"/>`)
	assert.Contains(t, doc, `<w:sz w:val="28"/>`)
}

func TestTextIsEscaped(t *testing.T) {
	d := New()
	d.AddParagraph().AddText(`Smith & Jones <LLC> "quoted"`)

	data, err := d.Bytes()
	require.NoError(t, err)
	doc := readPart(t, data, "word/document.xml")

	assert.Contains(t, doc, `Smith &amp; Jones &lt;LLC&gt; &quot;quoted&quot;`)
	assert.NotContains(t, doc, `Smith & Jones`)
}

func TestTableRendering(t *testing.T) {
	d := New()
	tbl := d.AddTable(4680, 4680)
	hdr := tbl.AddRow().SetHeader()
	hdr.AddTextF("Metric", func(r *Run) { r.Bold = true; r.Color = "FFFFFF" }).Fill = "1F4E79"
	hdr.AddTextF("Value", func(r *Run) { r.Bold = true; r.Color = "FFFFFF" }).Fill = "1F4E79"
	row := tbl.AddRow()
	row.AddText("DSCR")
	row.AddText("1.42x").Fill = "C6E0B4"

	data, err := d.Bytes()
	require.NoError(t, err)
	doc := readPart(t, data, "word/document.xml")

	assert.Contains(t, doc, `<w:gridCol w:w="4680"/>`)
	assert.Contains(t, doc, `<w:tblHeader/>`)
	assert.Contains(t, doc, `<w:tcW w:w="4680" w:type="dxa"/>`)
	assert.Contains(t, doc, `w:fill="1F4E79"`)
	assert.Contains(t, doc, `w:fill="C6E0B4"`)
	assert.Contains(t, doc, `1.42x`)
}

func TestPageBreak(t *testing.T) {
	d := New()
	d.AddParagraph().AddText("page one")
	d.AddPageBreak()
	d.AddParagraph().AddText("page two")

	data, err := d.Bytes()
	require.NoError(t, err)
	doc := readPart(t, data, "word/document.xml")

	assert.Contains(t, doc, `<w:br w:type="page"/>`)
}

func TestHeaderAndFooter(t *testing.T) {
	d := New()
	hp := d.Header().AddParagraph().SetTabStops(TabStop{Pos: 9360, Kind: "right"})
	hp.AddText("Acme Manufacturing LLC")
	hp.AddTab()
	hp.AddText("CONFIDENTIAL")

	fp := d.Footer().AddParagraph().SetTabStops(TabStop{Pos: 9360, Kind: "right"})
	fp.AddText("CONFIDENTIAL")
	fp.AddTab()
	fp.AddText("Page ")
	fp.AddPageNumber()

	data, err := d.Bytes()
	require.NoError(t, err)

	header := readPart(t, data, "word/header1.xml")
	assert.Contains(t, header, "Acme Manufacturing LLC")
	assert.Contains(t, header, "CONFIDENTIAL")
	assert.Contains(t, header, `<w:tab w:val="right" w:pos="9360"/>`)

	footer := readPart(t, data, "word/footer1.xml")
	assert.Contains(t, footer, `<w:fldSimple w:instr=" PAGE ">`)

	doc := readPart(t, data, "word/document.xml")
	assert.Contains(t, doc, `<w:headerReference w:type="default" r:id="rId2"/>`)
	assert.Contains(t, doc, `<w:footerReference w:type="default" r:id="rId3"/>`)
}

func TestDeterministicBytes(t *testing.T) {
	build := func() []byte {
		d := New()
		d.AddHeading(StyleTitle, "Credit Memorandum")
		tbl := d.AddTable(4680, 4680)
		row := tbl.AddRow()
		row.AddText("Borrower")
		row.AddText("Acme LLC")
		d.Header().AddParagraph().AddText("Acme LLC")
		data, err := d.Bytes()
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, build(), build())
}

func TestEmptyDocument(t *testing.T) {
	data, err := New().Bytes()
	require.NoError(t, err)

	doc := readPart(t, data, "word/document.xml")
	assert.Contains(t, doc, `<w:sectPr>`)
	assert.Contains(t, doc, `<w:pgSz w:w="12240" w:h="15840"/>`)

	// Header and footer parts exist even when empty.
	header := readPart(t, data, "word/header1.xml")
	assert.Contains(t, header, `<w:p/>`)
}
