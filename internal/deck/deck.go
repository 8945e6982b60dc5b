// Package deck assembles Sunday service slide decks from hymn lyrics and
// scripture lookups, following the congregation's fixed liturgy order.
package deck

import (
	"fmt"
	"time"

	"github.com/mvccc/zanmei/core/citation"
	"github.com/mvccc/zanmei/core/hymn"
	"github.com/mvccc/zanmei/core/pptx"
	"github.com/mvccc/zanmei/core/scripture"
	"github.com/mvccc/zanmei/internal/logging"
)

// VersesPerSlide is how many verses share one scripture slide.
const VersesPerSlide = 2

const (
	welcomeText = "請儘量往前或往中間坐,並將手機關閉或關至靜音,預備心敬拜！"
	silenceText = "惟耶和華在他的聖殿中；全地的人，都當在他面前肅敬靜默。"
	silenceCite = "哈巴谷書 2:20"

	openingHymn = "聖哉聖哉聖哉"
	doxology    = "三一頌"
)

// ServiceOrder describes one Sunday service.
type ServiceOrder struct {
	Hymns     []string // hymns sung by the congregation
	Scripture string   // citations read aloud
	Memorize  string   // verse of the week
	Message   string   // sermon title
	Messenger string   // who delivers it
	Choir     string   // anthem, optional
	Response  string   // hymn after the teaching, optional
	Offering  string   // offering hymn, optional
	Communion bool
}

// NextSunday returns the ISO date of the Sunday on or after today.
func NextSunday(today time.Time) string {
	days := (7 - int(today.Weekday())) % 7
	return today.AddDate(0, 0, days).Format("2006-01-02")
}

// Assembler builds decks from a hymn library and a scripture store.
type Assembler struct {
	Library *hymn.Library
	Store   *scripture.Store
}

// Assemble produces the full service deck for one order.
func (a *Assembler) Assemble(order ServiceOrder) (*pptx.Deck, error) {
	d := pptx.NewDeck()

	addMessage(d, welcomeText)
	addMessage(d, silenceText, "", silenceCite)

	if err := a.addHymn(d, openingHymn); err != nil {
		return nil, err
	}

	addSection(d, "宣  召")

	addSection(d, "頌  讚")
	for _, kw := range order.Hymns {
		if err := a.addHymn(d, kw); err != nil {
			return nil, err
		}
	}

	addSection(d, "祈  禱")

	addSection(d, "讀  經")
	if err := a.addScripture(d, order.Scripture); err != nil {
		return nil, err
	}
	if err := a.addMemorize(d, order.Memorize); err != nil {
		return nil, err
	}
	addBlank(d)

	addSection(d, "獻  詩")
	if order.Choir != "" {
		if err := a.addHymn(d, order.Choir); err != nil {
			return nil, err
		}
	}

	addTeaching(d, "信息", fmt.Sprintf("「%s」", order.Message), order.Messenger)

	addSection(d, "回  應")
	if order.Response != "" {
		if err := a.addHymn(d, order.Response); err != nil {
			return nil, err
		}
	}
	if order.Offering != "" {
		if err := a.addHymn(d, order.Offering); err != nil {
			return nil, err
		}
	}

	addSection(d, "奉 獻 禱 告")

	if order.Communion {
		addSection(d, "聖  餐")
	}

	addSection(d, "歡 迎 您")
	addSection(d, "家 事 分 享")

	if err := a.addHymn(d, doxology); err != nil {
		return nil, err
	}

	addSection(d, "祝  福")
	addSection(d, "默  禱")
	addBlank(d)

	logging.Info("deck assembled", "slides", d.SlideCount())
	return d, nil
}

func addMessage(d *pptx.Deck, lines ...string) {
	d.AddSlide(pptx.Slide{Layout: pptx.LayoutMessage, Body: lines})
}

func addSection(d *pptx.Deck, title string) {
	d.AddSlide(pptx.Slide{Layout: pptx.LayoutSection, Title: title})
}

func addBlank(d *pptx.Deck) {
	d.AddSlide(pptx.Slide{Layout: pptx.LayoutBlank})
}

func addTeaching(d *pptx.Deck, title, message, messenger string) {
	d.AddSlide(pptx.Slide{
		Layout: pptx.LayoutTeaching,
		Title:  title,
		Body:   []string{message, "", messenger},
	})
}

// addHymn looks a hymn up by keyword and appends one slide per stanza,
// reflowing long stanzas first. The slide title carries the verse marker
// so singers know where they are.
func (a *Assembler) addHymn(d *pptx.Deck, keyword string) error {
	h, err := a.Library.Find(keyword)
	if err != nil {
		return fmt.Errorf("hymn %q: %w", keyword, err)
	}

	stanzas := hymn.Reformat(
		hymnSplit(h.Stanzas),
		hymn.MaxSlideLines, hymn.TargetSlideLines,
	)
	logging.Info("hymn loaded", "keyword", keyword, "title", h.Title, "slides", len(stanzas))

	for _, st := range stanzas {
		title := h.Title
		if st.Marker != "" {
			title = h.Title + " " + st.Marker
		}
		d.AddSlide(pptx.Slide{Layout: pptx.LayoutHymn, Title: title, Body: st.Lines})
	}
	return nil
}

func hymnSplit(stanzas []hymn.Stanza) []hymn.Stanza {
	out := make([]hymn.Stanza, len(stanzas))
	for i, st := range stanzas {
		out[i] = hymn.Stanza{Marker: st.Marker, Lines: hymn.SplitLongLines(st.Lines, hymn.MinSplitLength)}
	}
	return out
}

// addScripture parses the citations, looks the verses up, and appends
// slides of VersesPerSlide verses titled with the citation key.
func (a *Assembler) addScripture(d *pptx.Deck, citations string) error {
	idx, err := citation.Parse(citations)
	if err != nil {
		return fmt.Errorf("scripture %q: %w", citations, err)
	}
	found, err := a.Store.Lookup(idx)
	if err != nil {
		return fmt.Errorf("scripture %q: %w", citations, err)
	}

	for _, cite := range idx.Keys() {
		verses := found[cite]
		if len(verses) == 0 {
			logging.Warn("citation matched no verses", "citation", cite)
			continue
		}
		for i := 0; i < len(verses); i += VersesPerSlide {
			end := i + VersesPerSlide
			if end > len(verses) {
				end = len(verses)
			}
			var body []string
			for _, v := range verses[i:end] {
				body = append(body, fmt.Sprintf("%d:%d　%s", v.Chapter, v.Verse, v.Text))
			}
			d.AddSlide(pptx.Slide{Layout: pptx.LayoutScripture, Title: cite, Body: body})
		}
	}
	return nil
}

// addMemorize renders the verse of the week: the first citation only,
// its verses joined into one paragraph, the citation right-aligned below.
func (a *Assembler) addMemorize(d *pptx.Deck, citations string) error {
	idx, err := citation.Parse(citations)
	if err != nil {
		return fmt.Errorf("memorize %q: %w", citations, err)
	}
	found, err := a.Store.Lookup(idx)
	if err != nil {
		return fmt.Errorf("memorize %q: %w", citations, err)
	}

	keys := idx.Keys()
	if len(keys) == 0 {
		return nil
	}
	cite := keys[0]

	var text string
	for _, v := range found[cite] {
		text += v.Text
	}

	d.AddSlide(pptx.Slide{
		Layout: pptx.LayoutMemorize,
		Title:  "本週金句",
		Body:   []string{text, "", fmt.Sprintf("%35s", cite)},
	})
	return nil
}
