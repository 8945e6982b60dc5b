package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// SlideText is the text of one deck: slides, each a list of shapes, each
// a list of paragraph strings.
type SlideText [][][]string

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ExtractText reads slide text from PPTX bytes. Slides come back in
// presentation order, shapes in document order within each slide, and
// each paragraph as its runs joined together. Empty trailing paragraphs
// of a shape are dropped.
func ExtractText(data []byte) (SlideText, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pptx: %w", err)
	}

	type slidePart struct {
		num  int
		file *zip.File
	}
	var parts []slidePart
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{num: n, file: f})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].num < parts[j].num })

	var slides SlideText
	for _, p := range parts {
		shapes, err := extractSlide(p.file)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", p.num, err)
		}
		slides = append(slides, shapes)
	}
	return slides, nil
}

// ExtractFile reads slide text from a PPTX file on disk.
func ExtractFile(path string) (SlideText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ExtractText(data)
}

// extractSlide parses one slide part. Queries match on local names so
// decks from any producer parse regardless of namespace prefixes.
func extractSlide(f *zip.File) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := xmlquery.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing slide xml: %w", err)
	}

	var shapes [][]string
	for _, body := range xmlquery.Find(doc, "//*[local-name()='txBody']") {
		var paras []string
		for _, p := range xmlquery.Find(body, "./*[local-name()='p']") {
			var text strings.Builder
			for _, t := range xmlquery.Find(p, ".//*[local-name()='t']") {
				text.WriteString(t.InnerText())
			}
			paras = append(paras, strings.ReplaceAll(text.String(), "\u00a0", " "))
		}
		for len(paras) > 0 && strings.TrimSpace(paras[len(paras)-1]) == "" {
			paras = paras[:len(paras)-1]
		}
		shapes = append(shapes, paras)
	}
	return shapes, nil
}
