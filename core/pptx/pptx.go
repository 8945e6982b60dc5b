// Package pptx provides pure Go PPTX deck creation and text extraction.
// This replaces the python-pptx dependency of the original tooling with a
// native implementation covering the parts service decks actually need:
// text-only slides written against a single built-in master, and reading
// the text back out of arbitrary decks.
package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Layout names the slide layouts of a service deck. The built-in master
// styles all layouts the same; the layout drives which placeholders a
// slide carries (title, body, or title only).
type Layout string

const (
	LayoutPrelude   Layout = "prelude"
	LayoutMessage   Layout = "message"
	LayoutHymn      Layout = "hymn"
	LayoutScripture Layout = "verse"
	LayoutMemorize  Layout = "memorize"
	LayoutTeaching  Layout = "teaching"
	LayoutSection   Layout = "section"
	LayoutBlank     Layout = "blank"
)

// Slide is one slide: a layout, an optional title and body paragraphs.
type Slide struct {
	Layout Layout
	Title  string
	Body   []string
}

// Deck accumulates slides and builds a PPTX file.
type Deck struct {
	slides []Slide
}

// NewDeck creates an empty deck.
func NewDeck() *Deck {
	return &Deck{}
}

// AddSlide appends a slide to the deck.
func (d *Deck) AddSlide(s Slide) {
	d.slides = append(d.slides, s)
}

// SlideCount returns the number of slides added so far.
func (d *Deck) SlideCount() int {
	return len(d.slides)
}

// Build creates the PPTX as bytes.
func (d *Deck) Build() ([]byte, error) {
	if len(d.slides) == 0 {
		return nil, fmt.Errorf("deck must have at least one slide")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if err := d.addContentTypes(zw); err != nil {
		return nil, err
	}
	if err := addStatic(zw, "_rels/.rels", rootRelsXML); err != nil {
		return nil, err
	}
	if err := d.addPresentation(zw); err != nil {
		return nil, err
	}
	if err := d.addPresentationRels(zw); err != nil {
		return nil, err
	}
	if err := addStatic(zw, "ppt/slideMasters/slideMaster1.xml", slideMasterXML); err != nil {
		return nil, err
	}
	if err := addStatic(zw, "ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML); err != nil {
		return nil, err
	}
	if err := addStatic(zw, "ppt/slideLayouts/slideLayout1.xml", slideLayoutXML); err != nil {
		return nil, err
	}
	if err := addStatic(zw, "ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML); err != nil {
		return nil, err
	}
	if err := addStatic(zw, "ppt/theme/theme1.xml", themeXML); err != nil {
		return nil, err
	}

	for i, slide := range d.slides {
		if err := d.addSlide(zw, i+1, slide); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile builds the deck and writes it to path.
func (d *Deck) WriteFile(path string) error {
	data, err := d.Build()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing deck: %w", err)
	}
	return nil
}

func addStatic(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(content))
	return err
}

func (d *Deck) addContentTypes(zw *zip.Writer) error {
	var overrides strings.Builder
	for i := range d.slides {
		overrides.WriteString(fmt.Sprintf(
			`  <Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`+"\n",
			i+1))
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
  <Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
  <Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
  <Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>
%s</Types>`, overrides.String())

	return addStatic(zw, "[Content_Types].xml", content)
}

func (d *Deck) addPresentation(zw *zip.Writer) error {
	var slideIDs strings.Builder
	for i := range d.slides {
		// rId1 is the master; slides start at rId2.
		slideIDs.WriteString(fmt.Sprintf(
			`    <p:sldId id="%d" r:id="rId%d"/>`+"\n", 256+i, i+2))
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:sldMasterIdLst>
    <p:sldMasterId id="2147483648" r:id="rId1"/>
  </p:sldMasterIdLst>
  <p:sldIdLst>
%s  </p:sldIdLst>
  <p:sldSz cx="12192000" cy="6858000"/>
  <p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>`, slideIDs.String())

	return addStatic(zw, "ppt/presentation.xml", content)
}

func (d *Deck) addPresentationRels(zw *zip.Writer) error {
	var rels strings.Builder
	rels.WriteString(`  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>` + "\n")
	for i := range d.slides {
		rels.WriteString(fmt.Sprintf(
			`  <Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`+"\n",
			i+2, i+1))
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
%s</Relationships>`, rels.String())

	return addStatic(zw, "ppt/_rels/presentation.xml.rels", content)
}

// addSlide writes one slide part and its relationship to the layout.
func (d *Deck) addSlide(zw *zip.Writer, n int, slide Slide) error {
	var shapes strings.Builder
	shapeID := 2

	titleOnly := slide.Layout == LayoutSection || slide.Layout == LayoutBlank
	if slide.Title != "" {
		if titleOnly {
			shapes.WriteString(textShape(shapeID, titleBoxCentered, []string{slide.Title}, 4400, true))
		} else {
			shapes.WriteString(textShape(shapeID, titleBoxTop, []string{slide.Title}, 3200, false))
		}
		shapeID++
	}
	if len(slide.Body) > 0 {
		shapes.WriteString(textShape(shapeID, bodyBox, slide.Body, 2800, false))
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr/>
%s    </p:spTree>
  </p:cSld>
</p:sld>`, shapes.String())

	if err := addStatic(zw, fmt.Sprintf("ppt/slides/slide%d.xml", n), content); err != nil {
		return err
	}
	return addStatic(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), slideRelsXML)
}

// box is a text box position in EMU.
type box struct {
	x, y, w, h int
}

var (
	titleBoxTop      = box{x: 609600, y: 365760, w: 10972800, h: 1143000}
	titleBoxCentered = box{x: 609600, y: 2514600, w: 10972800, h: 1828800}
	bodyBox          = box{x: 609600, y: 1828800, w: 10972800, h: 4572000}
)

// textShape renders one text box shape with one paragraph per line.
// size is the font size in hundredths of a point.
func textShape(id int, b box, lines []string, size int, centered bool) string {
	var paras strings.Builder
	align := ""
	if centered {
		align = ` algn="ctr"`
	}
	for _, line := range lines {
		paras.WriteString(fmt.Sprintf(`        <a:p>
          <a:pPr%s/>
          <a:r>
            <a:rPr lang="zh-TW" sz="%d" dirty="0"/>
            <a:t>%s</a:t>
          </a:r>
        </a:p>
`, align, size, escapeXML(line)))
	}

	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="TextBox %d"/>
          <p:cNvSpPr txBox="1"/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="rect"><a:avLst/></a:prstGeom>
        </p:spPr>
        <p:txBody>
          <a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr>
          <a:lstStyle/>
%s        </p:txBody>
      </p:sp>
`, id, id, b.x, b.y, b.w, b.h, paras.String())
}

// escapeXML escapes text for embedding in XML character data.
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)
