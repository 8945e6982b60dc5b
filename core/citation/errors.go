package citation

import "fmt"

// FormatError reports a citation segment whose structure cannot be
// resolved: a first segment without a book name, a verse token with no
// chapter context, or a range whose end precedes its start.
type FormatError struct {
	Segment string
	Reason  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid citation format: %s in %q", e.Reason, e.Segment)
}

// ParseError reports a segment remainder that does not tokenize as
// chapter/verse numbers and punctuation. One bad token fails the whole
// parse; there is no partial result.
type ParseError struct {
	Remainder string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed citation %q: %v", e.Remainder, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
