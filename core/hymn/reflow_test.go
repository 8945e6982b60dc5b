package hymn

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitLongLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name:  "short lines untouched",
			lines: []string{"清晨我眾歌聲", "穿雲上達至尊"},
			want:  []string{"清晨我眾歌聲", "穿雲上達至尊"},
		},
		{
			name:  "semicolon split keeps delimiter",
			lines: []string{"聖哉聖哉聖哉全權的神明聖哉聖哉聖哉；清晨我眾歌聲穿雲上達至尊歌頌不停"},
			want: []string{
				"聖哉聖哉聖哉全權的神明聖哉聖哉聖哉；",
				"清晨我眾歌聲穿雲上達至尊歌頌不停",
			},
		},
		{
			name:  "sentence then comma split",
			lines: []string{"何等恩友慈仁救主負我罪愆擔我憂愁。我們有無得享平安，都是因為未將萬事帶到主恩座前求，多少平安我們坐失"},
			want: []string{
				"何等恩友慈仁救主負我罪愆擔我憂愁。",
				"我們有無得享平安，",
				"都是因為未將萬事帶到主恩座前求，",
				"多少平安我們坐失",
			},
		},
		{
			name:  "long line with no delimiters kept whole",
			lines: []string{strings.Repeat("恩", 40)},
			want:  []string{strings.Repeat("恩", 40)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLongLines(tt.lines, MinSplitLength)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLongLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReformat(t *testing.T) {
	lines := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "歌詞"
		}
		return out
	}

	tests := []struct {
		name      string
		stanza    Stanza
		wantSizes []int
	}{
		{
			name:      "five lines fit one slide",
			stanza:    Stanza{Lines: lines(5)},
			wantSizes: []int{5},
		},
		{
			name:      "six lines split evenly-ish",
			stanza:    Stanza{Lines: lines(6)},
			wantSizes: []int{4, 2},
		},
		{
			name:      "nine lines keep the short tail with the last chunk",
			stanza:    Stanza{Lines: lines(9)},
			wantSizes: []int{4, 5},
		},
		{
			name:      "eight lines split in two",
			stanza:    Stanza{Lines: lines(8)},
			wantSizes: []int{4, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reformat([]Stanza{tt.stanza}, MaxSlideLines, TargetSlideLines)
			if len(got) != len(tt.wantSizes) {
				t.Fatalf("got %d stanzas, want %d", len(got), len(tt.wantSizes))
			}
			for i, want := range tt.wantSizes {
				if len(got[i].Lines) != want {
					t.Errorf("stanza %d has %d lines, want %d", i, len(got[i].Lines), want)
				}
			}
		})
	}
}

func TestReformatKeepsMarker(t *testing.T) {
	stanzas := []Stanza{{Marker: "(1)", Lines: []string{"一", "二", "三", "四", "五", "六"}}}
	got := Reformat(stanzas, MaxSlideLines, TargetSlideLines)
	for i, st := range got {
		if st.Marker != "(1)" {
			t.Errorf("stanza %d marker = %q, want (1)", i, st.Marker)
		}
	}
}
