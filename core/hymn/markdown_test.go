package hymn

import (
	"reflect"
	"testing"
)

const sampleMD = `# 聖哉聖哉聖哉

## (1)
聖哉，聖哉，聖哉！全權的神明！
清晨我眾歌聲，穿雲上達至尊

## (2)
聖哉，聖哉，聖哉！眾聖都崇拜
`

func TestParseMarkdown(t *testing.T) {
	h := ParseMarkdown(sampleMD)

	if h.Title != "聖哉聖哉聖哉" {
		t.Errorf("Title = %q, want %q", h.Title, "聖哉聖哉聖哉")
	}
	if len(h.Stanzas) != 2 {
		t.Fatalf("got %d stanzas, want 2", len(h.Stanzas))
	}
	if h.Stanzas[0].Marker != "(1)" {
		t.Errorf("first marker = %q, want %q", h.Stanzas[0].Marker, "(1)")
	}
	if len(h.Stanzas[0].Lines) != 2 {
		t.Errorf("first stanza has %d lines, want 2", len(h.Stanzas[0].Lines))
	}
	if h.Stanzas[1].Marker != "(2)" {
		t.Errorf("second marker = %q, want %q", h.Stanzas[1].Marker, "(2)")
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	h := ParseMarkdown(sampleMD)
	out := FormatMarkdown(h)
	again := ParseMarkdown(out)

	if !reflect.DeepEqual(h, again) {
		t.Errorf("round trip changed hymn:\nfirst:  %+v\nsecond: %+v", h, again)
	}
}

func TestFormatMarkdownLineBreaks(t *testing.T) {
	h := Hymn{
		Title:   "三一頌",
		Stanzas: []Stanza{{Lines: []string{"讚美真神萬福之根"}}},
	}
	out := FormatMarkdown(h)
	want := "# 三一頌\n\n##\n讚美真神萬福之根  \n"
	if out != want {
		t.Errorf("FormatMarkdown() = %q, want %q", out, want)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123_聖哉聖哉聖哉", "聖哉聖哉聖哉"},
		{"#45 榮耀歸於真神 (2)", "榮耀歸於真神"},
		{"聖哉聖哉聖哉 (1)", "聖哉聖哉聖哉"},
		{"三一頌", "三一頌"},
	}

	for _, tt := range tests {
		if got := CleanTitle(tt.input); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestVerseMarker(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"聖哉聖哉聖哉 (1)", "(1)"},
		{"聖哉聖哉聖哉(12)", "(12)"},
		{"聖哉聖哉聖哉", ""},
	}

	for _, tt := range tests {
		if got := VerseMarker(tt.input); got != tt.want {
			t.Errorf("VerseMarker(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFromSlideText(t *testing.T) {
	slides := [][][]string{
		{{"12_恩友歌"}},
		{{"恩友歌 (1)"}, {"何等恩友慈仁救主", "負我罪愆擔我憂"}},
		{{"恩友歌 (2)"}, {"我們有無試探引誘"}},
	}

	h := FromSlideText(slides)

	if h.Title != "恩友歌" {
		t.Errorf("Title = %q, want 恩友歌", h.Title)
	}
	if len(h.Stanzas) != 2 {
		t.Fatalf("got %d stanzas, want 2", len(h.Stanzas))
	}
	if h.Stanzas[0].Marker != "(1)" || h.Stanzas[1].Marker != "(2)" {
		t.Errorf("markers = %q, %q", h.Stanzas[0].Marker, h.Stanzas[1].Marker)
	}
	if h.Stanzas[0].Lines[0] != "何等恩友慈仁救主" {
		t.Errorf("first line = %q", h.Stanzas[0].Lines[0])
	}
}
