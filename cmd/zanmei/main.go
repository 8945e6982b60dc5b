// Command zanmei builds Sunday service slide decks: it parses scripture
// citations, looks verses up in a local bible database, pulls hymn lyrics
// from a markdown library, and writes the deck as a PPTX file. It also
// runs the OCR pipeline that builds the hymn library from hymnal scans.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/mvccc/zanmei/core/citation"
	"github.com/mvccc/zanmei/core/hymn"
	"github.com/mvccc/zanmei/core/pptx"
	"github.com/mvccc/zanmei/core/scripture"
	"github.com/mvccc/zanmei/internal/api"
	"github.com/mvccc/zanmei/internal/archive"
	"github.com/mvccc/zanmei/internal/deck"
	"github.com/mvccc/zanmei/internal/logging"
	"github.com/mvccc/zanmei/internal/ocr"
)

const version = "0.2.0"

// CLI defines the command-line interface for zanmei.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format"`

	Slides    SlidesCmd      `cmd:"" help:"Build a Sunday service deck"`
	Extract   ExtractCmd     `cmd:"" help:"OCR hymn images into lyric text"`
	Hymn      HymnGroup      `cmd:"" help:"Hymn library operations"`
	Scripture ScriptureGroup `cmd:"" help:"Bible verse database operations"`
	Serve     ServeCmd       `cmd:"" help:"Start the OCR job server"`
	Version   VersionCmd     `cmd:"" help:"Print version information"`
}

// HymnGroup contains hymn library operations.
type HymnGroup struct {
	Convert   HymnConvertCmd   `cmd:"" help:"Convert a hymn PPTX to markdown"`
	Reformat  HymnReformatCmd  `cmd:"" help:"Reflow hymn markdown for slide-sized stanzas"`
	Search    HymnSearchCmd    `cmd:"" help:"Search the hymn library"`
	Archive   HymnArchiveCmd   `cmd:"" help:"Pack the hymn library into a tar.xz"`
	Unarchive HymnUnarchiveCmd `cmd:"" help:"Unpack a hymn library archive"`
}

// ScriptureGroup contains bible database operations.
type ScriptureGroup struct {
	Import ScriptureImportCmd `cmd:"" help:"Import verses from a TSV file"`
	Lookup ScriptureLookupCmd `cmd:"" help:"Look up verses by citation"`
}

// SlidesCmd builds the service deck.
type SlidesCmd struct {
	Hymns     []string `help:"Hymns sung by the congregation" name:"hymns"`
	Scripture string   `help:"Citations read aloud" required:""`
	Memorize  string   `help:"Verse of the week" required:""`
	Message   string   `help:"Sermon title"`
	Messenger string   `help:"Who delivers the sermon"`
	Choir     string   `help:"Anthem sung by the choir"`
	Response  string   `help:"Hymn after the teaching"`
	Offering  string   `help:"Offering hymn"`
	Communion bool     `help:"Include the communion section"`

	Library string `help:"Hymn markdown library directory" default:"processed" type:"existingdir"`
	Bible   string `help:"Bible verse database" default:"bible.db"`
	Out     string `help:"Output PPTX path (defaults to <next-sunday>.pptx)"`
}

func (c *SlidesCmd) Run() error {
	store, err := scripture.Open(c.Bible)
	if err != nil {
		return err
	}
	defer store.Close()

	a := &deck.Assembler{Library: hymn.NewLibrary(c.Library), Store: store}
	d, err := a.Assemble(deck.ServiceOrder{
		Hymns:     c.Hymns,
		Scripture: c.Scripture,
		Memorize:  c.Memorize,
		Message:   c.Message,
		Messenger: c.Messenger,
		Choir:     c.Choir,
		Response:  c.Response,
		Offering:  c.Offering,
		Communion: c.Communion,
	})
	if err != nil {
		return err
	}

	out := c.Out
	if out == "" {
		out = deck.NextSunday(time.Now()) + ".pptx"
	}
	if err := d.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d slides)\n", out, d.SlideCount())
	return nil
}

// ExtractCmd runs an OCR batch over hymn images.
type ExtractCmd struct {
	DownloadDir string `help:"Directory containing hymn images" default:"download/zanmei" type:"existingdir"`
	OutputDir   string `help:"Directory to save extracted text" default:"processed/lyrics"`
	Hymns       string `help:"Hymn numbers to extract, e.g. '1,2,100-105'"`
	Format      string `help:"Output format" default:"pure" enum:"pure,markdown,json,chinese"`
	Model       string `help:"Ollama vision model" default:"deepseek-ocr:latest"`
	Ollama      string `help:"Ollama base URL" default:"http://127.0.0.1:11434"`
	CacheDir    string `help:"OCR result cache directory (empty disables caching)"`
}

func (c *ExtractCmd) Run() error {
	selected, err := ocr.ParseSelection(c.Hymns)
	if err != nil {
		return err
	}

	var cache *ocr.Cache
	if c.CacheDir != "" {
		cache, err = ocr.NewCache(c.CacheDir)
		if err != nil {
			return err
		}
	}

	runner := &ocr.Runner{
		Client:    ocr.NewClient(c.Model, c.Ollama),
		Cache:     cache,
		OutputDir: c.OutputDir,
		Format:    ocr.Format(c.Format),
	}
	summary, err := runner.Run(context.Background(), c.DownloadDir, selected)
	if err != nil {
		return err
	}

	fmt.Printf("processed %d hymns (%d failed), summary in %s\n",
		len(summary.Entries), summary.Failed, filepath.Join(c.OutputDir, "summary.json"))
	return nil
}

// HymnConvertCmd converts a hymn PPTX into the markdown lyric format.
type HymnConvertCmd struct {
	Path string `arg:"" help:"Hymn PPTX file" type:"existingfile"`
	Out  string `help:"Output markdown path (defaults to the pptx name with .md)"`
}

func (c *HymnConvertCmd) Run() error {
	slides, err := pptx.ExtractFile(c.Path)
	if err != nil {
		return err
	}

	h := hymn.FromSlideText(slides)
	if h.Title == "" {
		return fmt.Errorf("no hymn title found in %s", c.Path)
	}

	out := c.Out
	if out == "" {
		out = strings.TrimSuffix(c.Path, filepath.Ext(c.Path)) + ".md"
	}
	if err := os.WriteFile(out, []byte(hymn.FormatMarkdown(h)), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d stanzas)\n", out, len(h.Stanzas))
	return nil
}

// HymnReformatCmd reflows hymn markdown in place.
type HymnReformatCmd struct {
	Paths []string `arg:"" help:"Hymn markdown files" type:"existingfile"`
}

func (c *HymnReformatCmd) Run() error {
	for _, path := range c.Paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out := hymn.ReformatMarkdown(string(data))
		if out == string(data) {
			continue
		}
		if err := os.WriteFile(path, []byte(out), 0644); err != nil {
			return err
		}
		fmt.Printf("reformatted %s\n", path)
	}
	return nil
}

// HymnSearchCmd searches the hymn library.
type HymnSearchCmd struct {
	Keyword string `arg:"" help:"Hymn title or fragment"`
	Library string `help:"Hymn markdown library directory" default:"processed" type:"existingdir"`
}

func (c *HymnSearchCmd) Run() error {
	paths, err := hymn.NewLibrary(c.Library).Search(c.Keyword)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

// HymnArchiveCmd packs the hymn library.
type HymnArchiveCmd struct {
	Library string `help:"Hymn markdown library directory" default:"processed" type:"existingdir"`
	Out     string `help:"Archive path" default:"hymns.tar.xz"`
}

func (c *HymnArchiveCmd) Run() error {
	n, err := archive.Pack(c.Library, c.Out)
	if err != nil {
		return err
	}
	fmt.Printf("packed %d hymns into %s\n", n, c.Out)
	return nil
}

// HymnUnarchiveCmd unpacks a hymn library archive.
type HymnUnarchiveCmd struct {
	Path string `arg:"" help:"Archive file" type:"existingfile"`
	Dir  string `help:"Target directory" default:"processed"`
}

func (c *HymnUnarchiveCmd) Run() error {
	n, err := archive.Unpack(c.Path, c.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("unpacked %d hymns into %s\n", n, c.Dir)
	return nil
}

// ScriptureImportCmd imports verses from TSV.
type ScriptureImportCmd struct {
	Path  string `arg:"" help:"TSV file: book, chapter, verse, text" type:"existingfile"`
	Bible string `help:"Bible verse database" default:"bible.db"`
}

func (c *ScriptureImportCmd) Run() error {
	store, err := scripture.Open(c.Bible)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := store.Import(f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d verses into %s\n", n, c.Bible)
	return nil
}

// ScriptureLookupCmd looks up verses by citation.
type ScriptureLookupCmd struct {
	Citations string `arg:"" help:"Citations, e.g. '羅馬書3:23-24；約翰福音1:1'"`
	Bible     string `help:"Bible verse database" default:"bible.db" type:"existingfile"`
}

func (c *ScriptureLookupCmd) Run() error {
	idx, err := citation.Parse(c.Citations)
	if err != nil {
		return err
	}

	store, err := scripture.Open(c.Bible)
	if err != nil {
		return err
	}
	defer store.Close()

	found, err := store.Lookup(idx)
	if err != nil {
		return err
	}

	for _, key := range idx.Keys() {
		fmt.Println(key)
		for _, v := range found[key] {
			fmt.Printf("  %d:%d　%s\n", v.Chapter, v.Verse, v.Text)
		}
	}
	return nil
}

// ServeCmd starts the OCR job server.
type ServeCmd struct {
	Addr     string `help:"Listen address" default:"127.0.0.1:8321"`
	Model    string `help:"Ollama vision model" default:"deepseek-ocr:latest"`
	Ollama   string `help:"Ollama base URL" default:"http://127.0.0.1:11434"`
	CacheDir string `help:"OCR result cache directory (empty disables caching)"`
}

func (c *ServeCmd) Run() error {
	srv := api.NewServer(ocr.NewClient(c.Model, c.Ollama), c.CacheDir)

	port := 0
	if _, p, ok := strings.Cut(c.Addr, ":"); ok {
		fmt.Sscanf(p, "%d", &port)
	}
	logging.ServerStartup("ocr-jobs", "http", port, "addr", c.Addr)
	return srv.ListenAndServe(c.Addr)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("zanmei %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("zanmei"),
		kong.Description("Church service slide tooling: citations, scripture, hymns, decks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
