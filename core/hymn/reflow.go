package hymn

import "strings"

const (
	// MinSplitLength is the rune count at which a lyric line is
	// considered too long for one slide line.
	MinSplitLength = 30

	// MaxSlideLines is the most lines a lyrics slide may hold. The
	// extra line over TargetSlideLines leaves room for a trailing 阿們.
	MaxSlideLines = 5

	// TargetSlideLines is the chunk size used when resplitting.
	TargetSlideLines = 4
)

const sentenceDelims = "；!?！？。?"

// SplitLongLines breaks lyric lines of at least minLength runes into
// shorter ones, preferring the full-width semicolon, then sentence
// delimiters, then the full-width comma.
func SplitLongLines(lines []string, minLength int) []string {
	var result []string

	for _, line := range lines {
		if len([]rune(line)) < minLength {
			result = append(result, line)
			continue
		}

		if strings.Contains(line, "；") {
			parts := splitKeepingDelim(line, "；")
			if len(parts) >= 2 {
				result = append(result, parts...)
				continue
			}
		}

		segments := splitSentences(line)
		if len(segments) <= 1 {
			result = append(result, line)
			continue
		}

		for _, segment := range segments {
			if len([]rune(segment)) >= minLength && strings.Contains(segment, "，") {
				parts := splitKeepingDelim(segment, "，")
				if len(parts) >= 2 {
					result = append(result, parts...)
					continue
				}
			}
			result = append(result, segment)
		}
	}

	return result
}

// splitKeepingDelim splits on delim, keeping the delimiter at the end of
// every part but the last and dropping empty parts.
func splitKeepingDelim(s, delim string) []string {
	var parts []string
	for _, p := range strings.Split(s, delim) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += delim
	}
	return parts
}

// splitSentences splits a line after each sentence delimiter.
func splitSentences(line string) []string {
	var segments []string
	var buf strings.Builder
	for _, r := range line {
		buf.WriteRune(r)
		if strings.ContainsRune(sentenceDelims, r) {
			if s := strings.TrimSpace(buf.String()); s != "" {
				segments = append(segments, s)
			}
			buf.Reset()
		}
	}
	if s := strings.TrimSpace(buf.String()); s != "" {
		segments = append(segments, s)
	}
	return segments
}

// Reformat splits over-long stanzas into slide-sized chunks. Stanzas of
// more than maxLines lines are rechunked to targetLines, except that a
// short tail (at most maxLines-targetLines lines) is merged into the last
// chunk instead of becoming its own slide.
func Reformat(stanzas []Stanza, maxLines, targetLines int) []Stanza {
	var result []Stanza

	for _, st := range stanzas {
		lines := SplitLongLines(st.Lines, MinSplitLength)

		if len(lines) <= maxLines {
			result = append(result, Stanza{Marker: st.Marker, Lines: lines})
			continue
		}

		var chunks [][]string
		for i := 0; i < len(lines); i += targetLines {
			end := i + targetLines
			if end > len(lines) {
				end = len(lines)
			}
			remaining := len(lines) - end
			if remaining > 0 && remaining <= maxLines-targetLines {
				chunks = append(chunks, lines[i:])
				break
			}
			chunks = append(chunks, lines[i:end])
		}

		for _, chunk := range chunks {
			result = append(result, Stanza{Marker: st.Marker, Lines: chunk})
		}
	}

	return result
}

// ReformatMarkdown reflows a hymn markdown document for slide display.
func ReformatMarkdown(content string) string {
	h := ParseMarkdown(content)
	h.Stanzas = Reformat(h.Stanzas, MaxSlideLines, TargetSlideLines)
	return FormatMarkdown(h)
}
