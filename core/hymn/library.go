package hymn

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// interchangeables are character variants that hymn filenames use
// inconsistently; a search retries with each substitution before giving up.
var interchangeables = [][]string{
	{"你", "祢", "袮"},
	{"寶", "寳"},
	{"他", "祂"},
	{"于", "於"},
	{"牆", "墻"},
}

// Library is a directory tree of hymn markdown files.
type Library struct {
	Dir string
}

// NewLibrary returns a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{Dir: dir}
}

// Search finds hymn files whose name contains keyword, retrying with
// interchangeable character variants when the literal keyword matches
// nothing. Exact-stem matches sort first. Returns ErrHymnNotFound when no
// variant matches either.
func (l *Library) Search(keyword string) ([]string, error) {
	keyword = strings.TrimSuffix(strings.TrimSuffix(keyword, ".md"), ".pptx")

	found, err := l.glob(keyword)
	if err != nil {
		return nil, err
	}

	if len(found) == 0 {
		for _, variants := range interchangeables {
			for _, w := range variants {
				if !strings.Contains(keyword, w) {
					continue
				}
				for _, w1 := range variants {
					if w == w1 {
						continue
					}
					found, err = l.glob(strings.ReplaceAll(keyword, w, w1))
					if err != nil {
						return nil, err
					}
					if len(found) > 0 {
						break
					}
				}
				if len(found) > 0 {
					break
				}
			}
			if len(found) > 0 {
				break
			}
		}
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrHymnNotFound, keyword, l.Dir)
	}

	// Exact stem matches ahead of substring matches, stable otherwise.
	sort.SliceStable(found, func(i, j int) bool {
		return stem(found[i]) == keyword && stem(found[j]) != keyword
	})

	return found, nil
}

// Load reads and parses one hymn markdown file.
func (l *Library) Load(path string) (Hymn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Hymn{}, fmt.Errorf("reading hymn: %w", err)
	}
	return ParseMarkdown(string(data)), nil
}

// Find searches for keyword and loads the best match.
func (l *Library) Find(keyword string) (Hymn, error) {
	paths, err := l.Search(keyword)
	if err != nil {
		return Hymn{}, err
	}
	return l.Load(paths[0])
}

// glob walks the library for markdown files whose stem contains keyword.
func (l *Library) glob(keyword string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		if strings.Contains(stem(path), keyword) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching hymn library: %w", err)
	}
	sort.Strings(found)
	return found, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
