package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlProlog + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>` +
	`<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>` +
	`</Types>`

const rootRelsXML = xmlProlog + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = xmlProlog + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>` +
	`</Relationships>`

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
const rNS = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

// stylesXML defines Normal plus the three named styles used by reports.
// Sizes are half-points; 22 is 11pt body text.
const stylesXML = xmlProlog + `<w:styles ` + wNS + `>` +
	`<w:docDefaults>` +
	`<w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="22"/><w:szCs w:val="22"/></w:rPr></w:rPrDefault>` +
	`<w:pPrDefault><w:pPr><w:spacing w:after="120"/></w:pPr></w:pPrDefault>` +
	`</w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:spacing w:before="240" w:after="240"/><w:jc w:val="center"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="48"/><w:szCs w:val="48"/><w:color w:val="1F4E79"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="320" w:after="160"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="32"/><w:szCs w:val="32"/><w:color w:val="1F4E79"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/>` +
	`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/></w:pPr>` +
	`<w:rPr><w:b/><w:sz w:val="26"/><w:szCs w:val="26"/><w:color w:val="2E5C8A"/></w:rPr></w:style>` +
	`</w:styles>`

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escape(s string) string {
	return xmlEscaper.Replace(s)
}

func writeRun(b *strings.Builder, r *Run) {
	switch r.kind {
	case runTab:
		b.WriteString(`<w:r><w:tab/></w:r>`)
		return
	case runPageField:
		b.WriteString(`<w:fldSimple w:instr=" PAGE "><w:r><w:t>1</w:t></w:r></w:fldSimple>`)
		return
	}

	b.WriteString(`<w:r>`)
	if r.Bold || r.Italic || r.Color != "" || r.Size > 0 || r.Shade != "" {
		b.WriteString(`<w:rPr>`)
		if r.Bold {
			b.WriteString(`<w:b/>`)
		}
		if r.Italic {
			b.WriteString(`<w:i/>`)
		}
		if r.Color != "" {
			fmt.Fprintf(b, `<w:color w:val="%s"/>`, r.Color)
		}
		if r.Size > 0 {
			fmt.Fprintf(b, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, r.Size, r.Size)
		}
		if r.Shade != "" {
			fmt.Fprintf(b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, r.Shade)
		}
		b.WriteString(`</w:rPr>`)
	}
	fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, escape(r.Text))
	b.WriteString(`</w:r>`)
}

func writeBorderEdge(b *strings.Builder, edge string, sz int, color string) {
	fmt.Fprintf(b, `<w:%s w:val="single" w:sz="%d" w:space="4" w:color="%s"/>`, edge, sz, color)
}

func writeParagraph(b *strings.Builder, p *Paragraph) {
	b.WriteString(`<w:p>`)

	hasProps := p.style != "" || p.align != "" || p.shade != "" || p.borderColor != "" ||
		p.pageBreakBefore || p.hasSpacing || len(p.tabStops) > 0
	if hasProps {
		b.WriteString(`<w:pPr>`)
		if p.style != "" && p.style != StyleNormal {
			fmt.Fprintf(b, `<w:pStyle w:val="%s"/>`, p.style)
		}
		if p.pageBreakBefore {
			b.WriteString(`<w:pageBreakBefore/>`)
		}
		if p.borderColor != "" {
			b.WriteString(`<w:pBdr>`)
			for _, edge := range []string{"top", "left", "bottom", "right"} {
				writeBorderEdge(b, edge, 8, p.borderColor)
			}
			b.WriteString(`</w:pBdr>`)
		}
		if p.shade != "" {
			fmt.Fprintf(b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, p.shade)
		}
		if len(p.tabStops) > 0 {
			b.WriteString(`<w:tabs>`)
			for _, ts := range p.tabStops {
				fmt.Fprintf(b, `<w:tab w:val="%s" w:pos="%d"/>`, ts.Kind, ts.Pos)
			}
			b.WriteString(`</w:tabs>`)
		}
		if p.hasSpacing {
			fmt.Fprintf(b, `<w:spacing w:before="%d" w:after="%d"/>`, p.spacingBefore, p.spacingAfter)
		}
		if p.align != "" {
			fmt.Fprintf(b, `<w:jc w:val="%s"/>`, p.align)
		}
		b.WriteString(`</w:pPr>`)
	}

	for _, r := range p.runs {
		writeRun(b, r)
	}
	b.WriteString(`</w:p>`)
}

// tableBorderColor is the single border color for all table grids.
const tableBorderColor = "BFBFBF"

func writeTable(b *strings.Builder, t *Table) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/><w:tblBorders>`)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="%s"/>`, edge, tableBorderColor)
	}
	b.WriteString(`</w:tblBorders><w:tblLayout w:type="fixed"/></w:tblPr><w:tblGrid>`)
	for _, w := range t.colWidths {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, w)
	}
	b.WriteString(`</w:tblGrid>`)

	for _, row := range t.rows {
		b.WriteString(`<w:tr>`)
		if row.header {
			b.WriteString(`<w:trPr><w:tblHeader/></w:trPr>`)
		}
		for i, cell := range row.cells {
			width := 0
			if i < len(t.colWidths) {
				width = t.colWidths[i]
			}
			b.WriteString(`<w:tc><w:tcPr>`)
			fmt.Fprintf(b, `<w:tcW w:w="%d" w:type="dxa"/>`, width)
			if cell.Fill != "" {
				fmt.Fprintf(b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, cell.Fill)
			}
			b.WriteString(`<w:vAlign w:val="center"/></w:tcPr>`)
			if len(cell.paras) == 0 {
				b.WriteString(`<w:p/>`)
			}
			for _, p := range cell.paras {
				writeParagraph(b, p)
			}
			b.WriteString(`</w:tc>`)
		}
		b.WriteString(`</w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
}

func (d *Document) documentXML() string {
	var b strings.Builder
	b.WriteString(xmlProlog)
	b.WriteString(`<w:document ` + wNS + ` ` + rNS + `><w:body>`)

	for _, blk := range d.blocks {
		switch v := blk.(type) {
		case *Paragraph:
			writeParagraph(&b, v)
		case *Table:
			writeTable(&b, v)
		case pageBreak:
			b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		}
	}

	// US Letter with one inch margins.
	b.WriteString(`<w:sectPr>` +
		`<w:headerReference w:type="default" r:id="rId2"/>` +
		`<w:footerReference w:type="default" r:id="rId3"/>` +
		`<w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
		`</w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func headerFooterXML(root string, hf *HeaderFooter) string {
	var b strings.Builder
	b.WriteString(xmlProlog)
	b.WriteString(`<w:` + root + ` ` + wNS + `>`)
	if len(hf.paras) == 0 {
		b.WriteString(`<w:p/>`)
	}
	for _, p := range hf.paras {
		writeParagraph(&b, p)
	}
	b.WriteString(`</w:` + root + `>`)
	return b.String()
}

// zipEpoch keeps archive timestamps constant so identical documents are
// identical bytes.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Write serializes the document as a docx archive.
func (d *Document) Write(w io.Writer) error {
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/document.xml", d.documentXML()},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/header1.xml", headerFooterXML("hdr", d.header)},
		{"word/footer1.xml", headerFooterXML("ftr", d.footer)},
	}

	zw := zip.NewWriter(w)
	for _, part := range parts {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     part.name,
			Method:   zip.Deflate,
			Modified: zipEpoch,
		})
		if err != nil {
			return eris.Wrapf(err, "docx: create %s", part.name)
		}
		if _, err := f.Write([]byte(part.content)); err != nil {
			return eris.Wrapf(err, "docx: write %s", part.name)
		}
	}
	return eris.Wrap(zw.Close(), "docx: close archive")
}

// Bytes serializes the document and returns the archive contents.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
