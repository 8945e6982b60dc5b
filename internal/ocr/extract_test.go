package ocr

import (
	"reflect"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"聖哉聖哉聖哉", "chinese"},
		{"Holy Holy Holy", "english"},
		{"聖哉 Holy", "both"},
		{"123 !!!", "unknown"},
	}

	for _, tt := range tests {
		if got := detectLanguage(tt.text); got != tt.want {
			t.Errorf("detectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	got := cleanText("  聖哉   聖哉\t聖哉  ")
	if got != "聖哉 聖哉 聖哉" {
		t.Errorf("cleanText() = %q", got)
	}
}

func TestExtractChinese(t *testing.T) {
	// Per-character output with standalone verse numbers between verses.
	input := "1\n聖 a\n哉 b\n2\n恩\n友\n"
	want := "聖哉\n恩友"
	if got := extractChinese(input); got != want {
		t.Errorf("extractChinese() = %q, want %q", got, want)
	}
}

func TestHymnNumber(t *testing.T) {
	tests := []struct {
		path string
		num  int
		ok   bool
	}{
		{"download/012_hymn.png", 12, true},
		{"105.png", 105, true},
		{"hymn.png", 0, false},
	}

	for _, tt := range tests {
		num, ok := HymnNumber(tt.path)
		if num != tt.num || ok != tt.ok {
			t.Errorf("HymnNumber(%q) = %d, %v, want %d, %v", tt.path, num, ok, tt.num, tt.ok)
		}
	}
}

func TestParseResultJSON(t *testing.T) {
	raw := `Here you go: {"title": "聖哉聖哉聖哉", "language": "chinese"} done`
	h := parseResult(1, "001.png", raw, FormatJSON)

	if h.Structured == nil {
		t.Fatal("Structured should be parsed")
	}
	if h.Title != "聖哉聖哉聖哉" {
		t.Errorf("Title = %q", h.Title)
	}
	if h.Language != "chinese" {
		t.Errorf("Language = %q", h.Language)
	}
}

func TestParseResultJSONFallback(t *testing.T) {
	h := parseResult(2, "002.png", "恩友歌\n何等恩友慈仁救主", FormatJSON)

	if h.Structured != nil {
		t.Error("Structured should be nil for non-JSON output")
	}
	if h.Title != "恩友歌" {
		t.Errorf("Title = %q, want first line", h.Title)
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		input   string
		want    map[int]bool
		wantErr bool
	}{
		{"", nil, false},
		{"1,2,3", map[int]bool{1: true, 2: true, 3: true}, false},
		{"100-102", map[int]bool{100: true, 101: true, 102: true}, false},
		{"1, 5-6", map[int]bool{1: true, 5: true, 6: true}, false},
		{"abc", nil, true},
		{"9-5", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseSelection(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSelection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSelection(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
