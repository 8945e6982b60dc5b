// Package hymn models hymn lyrics as markdown and provides the reflow and
// library-search helpers used when assembling service decks.
//
// Markdown format:
//
//	# Hymn Title
//
//	## (1)
//	First line of verse 1
//	Second line of verse 1
//
//	## (2)
//	...
//
// Lyric lines carry a trailing two-space markdown line break.
package hymn

import (
	"regexp"
	"strings"
)

// Stanza is one slide's worth of lyrics: an optional verse marker like
// "(2)" and the lyric lines shown together.
type Stanza struct {
	Marker string
	Lines  []string
}

// Hymn is a parsed hymn: its title and ordered stanzas.
type Hymn struct {
	Title   string
	Stanzas []Stanza
}

var (
	titleNumberRe = regexp.MustCompile(`^#?\d+[_\s]*`)
	titleMarkerRe = regexp.MustCompile(`\s*\(\d+\)\s*$`)
	verseMarkerRe = regexp.MustCompile(`\((\d+)\)\s*$`)
)

// CleanTitle strips a leading hymn number and a trailing verse marker from
// a slide title, e.g. "123_聖哉聖哉聖哉 (1)" -> "聖哉聖哉聖哉".
func CleanTitle(title string) string {
	title = titleNumberRe.ReplaceAllString(title, "")
	title = titleMarkerRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// VerseMarker extracts a trailing "(n)" verse marker from a slide title,
// or returns "" when there is none.
func VerseMarker(title string) string {
	m := verseMarkerRe.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return "(" + m[1] + ")"
}

// formatLine appends the markdown hard line break to a lyric line.
func formatLine(line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	if strings.HasSuffix(line, "  ") {
		return line
	}
	return strings.TrimRight(line, " \t") + "  "
}

// stripLineBreak removes the markdown hard line break from a lyric line.
func stripLineBreak(line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	if strings.HasSuffix(line, "  ") {
		return line[:len(line)-2]
	}
	return strings.TrimRight(line, " \t")
}

// ParseMarkdown parses hymn markdown into its title and stanzas.
func ParseMarkdown(content string) Hymn {
	var h Hymn
	var current Stanza

	flush := func() {
		if len(current.Lines) > 0 {
			h.Stanzas = append(h.Stanzas, current)
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			h.Title = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "## "):
			flush()
			current = Stanza{Marker: strings.TrimSpace(line[3:])}
		case strings.HasPrefix(line, "##"):
			flush()
			current = Stanza{}
		case strings.TrimSpace(line) != "":
			current.Lines = append(current.Lines, stripLineBreak(line))
		}
	}
	flush()

	return h
}

// FormatMarkdown renders a hymn back to markdown.
func FormatMarkdown(h Hymn) string {
	lines := []string{"# " + h.Title, ""}

	for _, st := range h.Stanzas {
		if st.Marker != "" {
			lines = append(lines, "## "+st.Marker)
		} else {
			lines = append(lines, "##")
		}
		for _, l := range st.Lines {
			lines = append(lines, formatLine(l))
		}
		lines = append(lines, "")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

// FromSlideText converts extracted slide text (slides -> shapes ->
// paragraphs) into a hymn. The first shape of a slide is its title, the
// second its lyrics; a one-shape slide either names the hymn or is a
// marker-less lyrics slide.
func FromSlideText(slides [][][]string) Hymn {
	var h Hymn
	titleSet := false

	for _, shapes := range slides {
		if len(shapes) == 0 {
			continue
		}

		if len(shapes) == 1 {
			only := shapes[0]
			if !titleSet {
				if len(only) > 0 {
					h.Title = CleanTitle(only[0])
				}
				titleSet = true
				continue
			}
			st := Stanza{}
			for _, line := range only {
				if strings.TrimSpace(line) != "" {
					st.Lines = append(st.Lines, stripLineBreak(line))
				}
			}
			if len(st.Lines) > 0 {
				h.Stanzas = append(h.Stanzas, st)
			}
			continue
		}

		titleLines, lyricLines := shapes[0], shapes[1]
		title := ""
		if len(titleLines) > 0 {
			title = titleLines[0]
		}
		if !titleSet {
			h.Title = CleanTitle(title)
			titleSet = true
		}

		st := Stanza{Marker: VerseMarker(title)}
		for _, line := range lyricLines {
			st.Lines = append(st.Lines, stripLineBreak(line))
		}
		h.Stanzas = append(h.Stanzas, st)
	}

	return h
}
