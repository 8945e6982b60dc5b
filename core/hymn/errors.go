package hymn

import "errors"

// ErrHymnNotFound is returned when no hymn file matches a search keyword,
// even after trying interchangeable character variants.
var ErrHymnNotFound = errors.New("hymn not found")
