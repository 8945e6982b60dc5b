package hymn

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeHymn(t *testing.T, dir, name, title string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "# " + title + "\n\n## (1)\n歌詞一  \n歌詞二  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLibrarySearch(t *testing.T) {
	dir := t.TempDir()
	writeHymn(t, dir, "聖哉聖哉聖哉.md", "聖哉聖哉聖哉")
	writeHymn(t, dir, "12_恩友歌.md", "恩友歌")

	lib := NewLibrary(dir)

	t.Run("exact keyword", func(t *testing.T) {
		paths, err := lib.Search("聖哉聖哉聖哉")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(paths) != 1 {
			t.Fatalf("Search() found %d files, want 1", len(paths))
		}
	})

	t.Run("substring keyword", func(t *testing.T) {
		paths, err := lib.Search("恩友歌")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(paths) != 1 || !strings.Contains(paths[0], "恩友歌") {
			t.Fatalf("Search() = %v", paths)
		}
	})

	t.Run("missing hymn", func(t *testing.T) {
		_, err := lib.Search("不存在的詩歌")
		if !errors.Is(err, ErrHymnNotFound) {
			t.Errorf("Search() error = %v, want ErrHymnNotFound", err)
		}
	})
}

func TestLibrarySearchVariants(t *testing.T) {
	dir := t.TempDir()
	writeHymn(t, dir, "祂藏我靈.md", "祂藏我靈")

	lib := NewLibrary(dir)

	// Keyword uses 他, file uses 祂.
	paths, err := lib.Search("他藏我靈")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("Search() found %d files, want 1", len(paths))
	}
}

func TestLibrarySearchPrefersExactStem(t *testing.T) {
	dir := t.TempDir()
	writeHymn(t, dir, "三一頌舊版.md", "三一頌")
	exact := writeHymn(t, dir, "三一頌.md", "三一頌")

	lib := NewLibrary(dir)

	paths, err := lib.Search("三一頌")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Search() found %d files, want 2", len(paths))
	}
	if paths[0] != exact {
		t.Errorf("first result = %s, want exact match %s", paths[0], exact)
	}
}

func TestLibraryFind(t *testing.T) {
	dir := t.TempDir()
	writeHymn(t, dir, "恩友歌.md", "恩友歌")

	h, err := NewLibrary(dir).Find("恩友歌")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if h.Title != "恩友歌" {
		t.Errorf("Title = %q, want 恩友歌", h.Title)
	}
	if len(h.Stanzas) != 1 || len(h.Stanzas[0].Lines) != 2 {
		t.Errorf("unexpected stanzas: %+v", h.Stanzas)
	}
}
