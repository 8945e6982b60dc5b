package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Format selects the extraction mode.
type Format string

const (
	FormatPure     Format = "pure"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	// FormatChinese runs the pure prompt and keeps only Chinese
	// characters, regrouped by verse number.
	FormatChinese Format = "chinese"
)

// Prompts stay short; longer instructions tend to leak into the output.
const (
	promptPure     = "Read all text in this image."
	promptMarkdown = "Read all text in this image and format as markdown."
	promptJSON     = "Read all text in this image and return as JSON."
)

// Line is one recognized line of text.
type Line struct {
	Text string `json:"text"`
}

// HymnText is the OCR result for one hymn image.
type HymnText struct {
	Number     int            `json:"number"`
	Filename   string         `json:"filename"`
	Title      string         `json:"title"`
	Lines      []Line         `json:"lines"`
	FullText   string         `json:"full_text"`
	Language   string         `json:"language"`
	Structured map[string]any `json:"structured_data,omitempty"`
}

var (
	hymnNumberRe = regexp.MustCompile(`^(\d+)`)
	spacesRe     = regexp.MustCompile(`[^\S\n]+`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n`)
	verseNumRe   = regexp.MustCompile(`^\d+$`)
	chineseRe    = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
)

func (f Format) prompt() string {
	switch f {
	case FormatMarkdown:
		return promptMarkdown
	case FormatJSON:
		return promptJSON
	default:
		return promptPure
	}
}

// detectLanguage classifies text as chinese, english, both, or unknown.
func detectLanguage(text string) string {
	var hasChinese, hasEnglish bool
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			hasChinese = true
		}
		if r < 128 && unicode.IsLetter(r) {
			hasEnglish = true
		}
	}
	switch {
	case hasChinese && hasEnglish:
		return "both"
	case hasChinese:
		return "chinese"
	case hasEnglish:
		return "english"
	default:
		return "unknown"
	}
}

// cleanText collapses OCR whitespace artifacts.
func cleanText(text string) string {
	text = spacesRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// extractChinese keeps only Chinese characters, grouped by the standalone
// verse numbers the OCR emits between verses.
func extractChinese(text string) string {
	var resultLines []string
	var current strings.Builder

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if verseNumRe.MatchString(line) {
			if current.Len() > 0 {
				resultLines = append(resultLines, current.String())
				current.Reset()
			}
			continue
		}
		for _, m := range chineseRe.FindAllString(line, -1) {
			current.WriteString(m)
		}
	}
	if current.Len() > 0 {
		resultLines = append(resultLines, current.String())
	}

	return strings.Join(resultLines, "\n")
}

// HymnNumber extracts the leading hymn number from an image filename.
func HymnNumber(path string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := hymnNumberRe.FindStringSubmatch(stem)
	if m == nil {
		return 0, false
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return n, true
}

// ExtractImage runs OCR over one hymn image file.
func (c *Client) ExtractImage(ctx context.Context, path string, format Format) (*HymnText, error) {
	number, ok := HymnNumber(path)
	if !ok {
		return nil, fmt.Errorf("no hymn number in filename %s", filepath.Base(path))
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	text, err := c.Read(ctx, format.prompt(), image)
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", filepath.Base(path), err)
	}

	return parseResult(number, filepath.Base(path), text, format), nil
}

// parseResult turns the model's raw output into a HymnText. JSON mode
// tries to parse the response body and falls back to plain text.
func parseResult(number int, filename, text string, format Format) *HymnText {
	var fullText string
	// Chinese extraction sees the raw text; cleaning would collapse the
	// per-character lines it groups on.
	if format == FormatChinese {
		fullText = extractChinese(text)
	} else {
		fullText = cleanText(text)
	}

	h := &HymnText{
		Number:   number,
		Filename: filename,
		FullText: fullText,
		Language: detectLanguage(fullText),
	}

	if format == FormatJSON {
		if structured := parseJSONBody(text); structured != nil {
			h.Structured = structured
			if title, ok := structured["title"].(string); ok {
				h.Title = title
			}
			if lang, ok := structured["language"].(string); ok && lang != "" {
				h.Language = lang
			}
		}
	}

	var lines []Line
	for _, line := range strings.Split(fullText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, Line{Text: line})
		}
	}
	h.Lines = lines

	if h.Title == "" && len(lines) > 0 {
		h.Title = lines[0].Text
	}
	return h
}

// parseJSONBody pulls the outermost JSON object out of a response that
// may carry prose around it.
func parseJSONBody(text string) map[string]any {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	var structured map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &structured); err != nil {
		return nil
	}
	return structured
}
