package pptx

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildAndExtract(t *testing.T) {
	deck := NewDeck()
	deck.AddSlide(Slide{Layout: LayoutSection, Title: "宣召"})
	deck.AddSlide(Slide{
		Layout: LayoutHymn,
		Title:  "聖哉聖哉聖哉 (1)",
		Body:   []string{"聖哉，聖哉，聖哉！全權的神明！", "清晨我眾歌聲，穿雲上達至尊"},
	})
	deck.AddSlide(Slide{
		Layout: LayoutScripture,
		Title:  "羅馬書3:23",
		Body:   []string{"3:23 因為世人都犯了罪"},
	})

	data, err := deck.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	slides, err := ExtractText(data)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if len(slides) != 3 {
		t.Fatalf("got %d slides, want 3", len(slides))
	}

	if len(slides[0]) != 1 || slides[0][0][0] != "宣召" {
		t.Errorf("section slide = %v", slides[0])
	}

	hymn := slides[1]
	if len(hymn) != 2 {
		t.Fatalf("hymn slide has %d shapes, want 2", len(hymn))
	}
	if hymn[0][0] != "聖哉聖哉聖哉 (1)" {
		t.Errorf("hymn title = %q", hymn[0][0])
	}
	if len(hymn[1]) != 2 || hymn[1][1] != "清晨我眾歌聲，穿雲上達至尊" {
		t.Errorf("hymn body = %v", hymn[1])
	}

	verse := slides[2]
	if verse[0][0] != "羅馬書3:23" || verse[1][0] != "3:23 因為世人都犯了罪" {
		t.Errorf("scripture slide = %v", verse)
	}
}

func TestBuildEscapesXML(t *testing.T) {
	deck := NewDeck()
	deck.AddSlide(Slide{Layout: LayoutMessage, Title: `A & B <C> "D"`})

	data, err := deck.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	slides, err := ExtractText(data)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if slides[0][0][0] != `A & B <C> "D"` {
		t.Errorf("round trip = %q", slides[0][0][0])
	}
}

func TestBuildEmptyDeck(t *testing.T) {
	if _, err := NewDeck().Build(); err == nil {
		t.Error("Build() on empty deck should fail")
	}
}

func TestWriteAndExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")

	deck := NewDeck()
	deck.AddSlide(Slide{Layout: LayoutBlank, Title: "默禱"})
	if err := deck.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	slides, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if len(slides) != 1 || slides[0][0][0] != "默禱" {
		t.Errorf("slides = %v", slides)
	}
}

func TestExtractTextBadData(t *testing.T) {
	if _, err := ExtractText([]byte("not a zip")); err == nil {
		t.Error("ExtractText() on garbage should fail")
	}
	if _, err := ExtractText([]byte("not a zip")); err != nil && !strings.Contains(err.Error(), "pptx") {
		t.Errorf("error should mention pptx: %v", err)
	}
}
