// Package citation parses the citation mini-language used to reference
// bible passages in service programs, e.g. 羅馬書3:23-24,26；約翰福音1:1.
//
// An input string holds one or more semicolon-delimited segments. Each
// segment names a book (or inherits the previous segment's book) followed
// by comma-delimited verse ranges. Chapter numbers omitted from a range
// are inherited from the chapter most recently seen in the same segment.
package citation

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// VerseLoc is the location of a single verse within a book.
type VerseLoc struct {
	Chapter int
	Verse   int
}

// Less reports whether l is ordered before other, chapter first.
func (l VerseLoc) Less(other VerseLoc) bool {
	if l.Chapter != other.Chapter {
		return l.Chapter < other.Chapter
	}
	return l.Verse < other.Verse
}

// Citation is an uninterrupted span of scripture within one book.
// It may cross a chapter boundary.
type Citation struct {
	Start VerseLoc
	End   VerseLoc
}

// BookCitations groups all spans requested for one book by one segment.
type BookCitations struct {
	Book      string
	Citations []Citation
}

// Index is the ordered result of a parse. Keys are the book name
// concatenated with the normalized range remainder of the segment, in
// first-appearance order.
type Index struct {
	keys    []string
	entries map[string]BookCitations
}

// Keys returns the index keys in input order.
func (x *Index) Keys() []string {
	return x.keys
}

// Get returns the citations stored under key.
func (x *Index) Get(key string) (BookCitations, bool) {
	bc, ok := x.entries[key]
	return bc, ok
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.keys)
}

func (x *Index) put(key string, bc BookCitations) {
	if _, seen := x.entries[key]; !seen {
		x.keys = append(x.keys, key)
	}
	x.entries[key] = bc
}

// normalizer canonicalizes the punctuation variants that appear in
// human-authored citations. Applied per segment before tokenizing, so the
// grammar only ever sees ASCII "-", "," and ":".
var normalizer = strings.NewReplacer(
	"～", "-",
	"－", "-",
	"_", "-",
	"，", ",",
	"、", ",",
	"：", ":",
	"　", "",
	" ", "",
)

// rangeList is the parse tree for a segment's remainder, e.g. "11:12-13:15,19".
type rangeList struct {
	Ranges []*verseRange `@@ ( "," @@ )*`
}

// verseRange is one comma-delimited range token: a single verse reference
// or a dash-separated start and end.
type verseRange struct {
	Start *verseRef `@@`
	End   *verseRef `( "-" @@ )?`
}

// verseRef is either chapter:verse or a bare verse number whose chapter is
// inherited from the current chapter.
type verseRef struct {
	First  int  `@Number`
	Second *int `( ":" @Number )?`
}

// rangeLexer tokenizes a normalized segment remainder.
var rangeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Comma", Pattern: `,`},
})

// rangeParser parses segment remainders.
var rangeParser = participle.MustBuild[rangeList](
	participle.Lexer(rangeLexer),
)

// Parse parses a citation string into an ordered Index.
//
// Segments are split on ";" or "；". The first segment must name a book;
// later segments may omit it and reuse the previous one. Returns a
// *FormatError when a segment has no discoverable book name and none was
// established earlier, and a *ParseError when a range token is malformed.
func Parse(citations string) (*Index, error) {
	result := &Index{entries: make(map[string]BookCitations)}

	segments := strings.Split(strings.ReplaceAll(citations, "；", ";"), ";")

	lastBook := ""
	for _, segment := range segments {
		segment = normalizer.Replace(segment)

		book, remainder := splitBook(segment)
		if book == "" {
			if lastBook == "" {
				return nil, &FormatError{Segment: segment, Reason: "no book name found"}
			}
			book = lastBook
		}
		lastBook = book

		cites, err := parseRanges(remainder)
		if err != nil {
			return nil, err
		}

		result.put(book+remainder, BookCitations{Book: book, Citations: cites})
	}

	return result, nil
}

// splitBook splits a normalized segment into its leading book name (the
// greedy run of non-digit characters) and the range remainder. The book is
// empty when the segment starts with a digit.
func splitBook(segment string) (book, remainder string) {
	for i, r := range segment {
		if r >= '0' && r <= '9' {
			return segment[:i], segment[i:]
		}
	}
	return segment, ""
}

// parseRanges parses a segment remainder and expands it into citations,
// folding the current chapter across range tokens.
func parseRanges(remainder string) ([]Citation, error) {
	list, err := rangeParser.ParseString("", remainder)
	if err != nil {
		return nil, &ParseError{Remainder: remainder, Err: err}
	}

	var cites []Citation
	chapter := 0 // current chapter; 0 until a token establishes one
	for _, rng := range list.Ranges {
		start, err := rng.Start.resolve(remainder, chapter)
		if err != nil {
			return nil, err
		}
		chapter = start.Chapter

		end := start
		if rng.End != nil {
			// A bare end verse stays in the start chapter just computed.
			end, err = rng.End.resolve(remainder, chapter)
			if err != nil {
				return nil, err
			}
			chapter = end.Chapter
		}

		if end.Less(start) {
			return nil, &FormatError{Segment: remainder, Reason: "range end precedes start"}
		}
		cites = append(cites, Citation{Start: start, End: end})
	}

	return cites, nil
}

// resolve turns a verse reference into a concrete location. current is the
// chapter carried from earlier tokens in the segment, 0 when none exists.
func (r *verseRef) resolve(remainder string, current int) (VerseLoc, error) {
	if r.Second != nil {
		return VerseLoc{Chapter: r.First, Verse: *r.Second}, nil
	}
	if current == 0 {
		return VerseLoc{}, &FormatError{Segment: remainder, Reason: "verse has no chapter context"}
	}
	return VerseLoc{Chapter: current, Verse: r.First}, nil
}
