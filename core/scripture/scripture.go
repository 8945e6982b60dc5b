// Package scripture stores bible text in SQLite and resolves parsed
// citations into verse text.
package scripture

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mvccc/zanmei/core/citation"
	"github.com/mvccc/zanmei/core/sqlite"
)

// Verse is one verse of scripture.
type Verse struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
}

// Store is a SQLite-backed verse store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS verses (
	book    TEXT    NOT NULL,
	chapter INTEGER NOT NULL,
	verse   INTEGER NOT NULL,
	text    TEXT    NOT NULL,
	PRIMARY KEY (book, chapter, verse)
);
`

// Open opens (creating if needed) a verse store at path.
// Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening verse store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating verse schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import loads verses from tab-separated lines of the form
// "book<TAB>chapter<TAB>verse<TAB>text". Blank lines and lines starting
// with # are skipped. The whole import runs in one transaction and
// returns the number of verses loaded.
func (s *Store) Import(r io.Reader) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO verses (book, chapter, verse, text) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 4)
		if len(fields) != 4 {
			return 0, fmt.Errorf("line %d: expected 4 tab-separated fields, got %d", lineNo, len(fields))
		}
		chapter, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, fmt.Errorf("line %d: bad chapter %q: %w", lineNo, fields[1], err)
		}
		verse, err := strconv.Atoi(fields[2])
		if err != nil {
			return 0, fmt.Errorf("line %d: bad verse %q: %w", lineNo, fields[2], err)
		}
		if _, err := stmt.Exec(fields[0], chapter, verse, fields[3]); err != nil {
			return 0, fmt.Errorf("line %d: inserting verse: %w", lineNo, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading import data: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return count, nil
}

// Count returns the number of stored verses.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM verses").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting verses: %w", err)
	}
	return n, nil
}

// Books returns the distinct book names in the store.
func (s *Store) Books() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT book FROM verses ORDER BY book")
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// spanQuery selects the verses inside one citation span, including spans
// that cross a chapter boundary.
const spanQuery = `
SELECT book, chapter, verse, text FROM verses
WHERE book = ?
  AND (chapter > ? OR (chapter = ? AND verse >= ?))
  AND (chapter < ? OR (chapter = ? AND verse <= ?))
ORDER BY chapter, verse
`

// Span returns the verses covered by one citation in the given book.
func (s *Store) Span(book string, c citation.Citation) ([]Verse, error) {
	rows, err := s.db.Query(spanQuery,
		book,
		c.Start.Chapter, c.Start.Chapter, c.Start.Verse,
		c.End.Chapter, c.End.Chapter, c.End.Verse,
	)
	if err != nil {
		return nil, fmt.Errorf("querying span: %w", err)
	}
	defer rows.Close()

	var verses []Verse
	for rows.Next() {
		var v Verse
		if err := rows.Scan(&v.Book, &v.Chapter, &v.Verse, &v.Text); err != nil {
			return nil, err
		}
		verses = append(verses, v)
	}
	return verses, rows.Err()
}

// Lookup resolves every entry of a parsed citation index into verse text.
// The returned map is keyed like the index; iterate idx.Keys() for input
// order. A citation that matches nothing yields an empty slice, not an
// error.
func (s *Store) Lookup(idx *citation.Index) (map[string][]Verse, error) {
	result := make(map[string][]Verse, idx.Len())
	for _, key := range idx.Keys() {
		bc, _ := idx.Get(key)
		var verses []Verse
		for _, c := range bc.Citations {
			vs, err := s.Span(bc.Book, c)
			if err != nil {
				return nil, fmt.Errorf("looking up %s: %w", key, err)
			}
			verses = append(verses, vs...)
		}
		result[key] = verses
	}
	return result, nil
}
