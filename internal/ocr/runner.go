package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mvccc/zanmei/internal/logging"
)

// Progress reports per-image batch progress.
type Progress struct {
	RunID     string `json:"run_id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Number    int    `json:"number"`
	Filename  string `json:"filename"`
	Language  string `json:"language"`
	FromCache bool   `json:"from_cache"`
	Err       string `json:"error,omitempty"`
}

// SummaryEntry is one hymn's row in summary.json.
type SummaryEntry struct {
	Number        int    `json:"number"`
	Filename      string `json:"filename"`
	Title         string `json:"title"`
	Language      string `json:"language"`
	TextPreview   string `json:"text_preview"`
	HasStructured bool   `json:"has_structured"`
}

// Summary is the batch result written to summary.json.
type Summary struct {
	RunID      string         `json:"run_id"`
	Format     Format         `json:"format"`
	Model      string         `json:"model"`
	Entries    []SummaryEntry `json:"entries"`
	ByLanguage map[string]int `json:"by_language"`
	Structured int            `json:"structured"`
	Failed     int            `json:"failed"`
}

// Runner extracts a batch of hymn images into an output directory.
type Runner struct {
	Client    *Client
	Cache     *Cache // optional
	OutputDir string
	Format    Format
	OnUpdate  func(Progress) // optional
}

// ParseSelection parses a hymn number filter like "1,2,100-105" into the
// selected set. An empty selection selects everything (nil set).
func ParseSelection(selection string) (map[int]bool, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil, nil
	}

	selected := make(map[int]bool)
	for _, item := range strings.Split(selection, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if start, end, ok := strings.Cut(item, "-"); ok {
			lo, err1 := strconv.Atoi(strings.TrimSpace(start))
			hi, err2 := strconv.Atoi(strings.TrimSpace(end))
			if err1 != nil || err2 != nil || lo > hi {
				return nil, fmt.Errorf("invalid hymn range %q", item)
			}
			for n := lo; n <= hi; n++ {
				selected[n] = true
			}
			continue
		}
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid hymn number %q", item)
		}
		selected[n] = true
	}
	return selected, nil
}

// listImages finds PNG hymn images in dir, filtered to the selected
// numbers, sorted by filename.
func listImages(dir string, selected map[int]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".png") {
			continue
		}
		n, ok := HymnNumber(e.Name())
		if !ok {
			logging.Warn("no hymn number in filename", "file", e.Name())
			continue
		}
		if selected != nil && !selected[n] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Run extracts every selected image under imageDir and writes per-hymn
// results plus summary.json under OutputDir. Failed images are logged and
// counted but do not abort the batch; ctx cancellation does.
func (r *Runner) Run(ctx context.Context, imageDir string, selected map[int]bool) (*Summary, error) {
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	files, err := listImages(imageDir, selected)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:      uuid.New().String(),
		Format:     r.Format,
		Model:      r.Client.Model(),
		ByLanguage: make(map[string]int),
	}
	logging.Info("ocr batch starting", "run_id", summary.RunID, "images", len(files), "format", r.Format)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		number, _ := HymnNumber(path)
		h, fromCache, err := r.extractOne(ctx, path)

		p := Progress{
			RunID:     summary.RunID,
			Current:   i + 1,
			Total:     len(files),
			Number:    number,
			Filename:  filepath.Base(path),
			FromCache: fromCache,
		}
		if err != nil {
			summary.Failed++
			p.Err = err.Error()
			logging.Error("ocr failed", "file", filepath.Base(path), "error", err)
			r.update(p)
			continue
		}
		p.Language = h.Language

		if err := r.writeResult(h); err != nil {
			return nil, err
		}

		summary.Entries = append(summary.Entries, SummaryEntry{
			Number:        h.Number,
			Filename:      h.Filename,
			Title:         h.Title,
			Language:      h.Language,
			TextPreview:   preview(h.FullText),
			HasStructured: h.Structured != nil,
		})
		summary.ByLanguage[h.Language]++
		if h.Structured != nil {
			summary.Structured++
		}

		logging.Info("ocr saved", "number", fmt.Sprintf("%03d", h.Number), "language", h.Language, "cached", fromCache)
		r.update(p)
	}

	if err := writeJSON(filepath.Join(r.OutputDir, "summary.json"), summary); err != nil {
		return nil, err
	}
	logging.Info("ocr batch done", "run_id", summary.RunID,
		"processed", len(summary.Entries), "failed", summary.Failed)
	return summary, nil
}

// extractOne serves from cache when possible, extracting and filling the
// cache otherwise.
func (r *Runner) extractOne(ctx context.Context, path string) (*HymnText, bool, error) {
	if r.Cache == nil {
		h, err := r.Client.ExtractImage(ctx, path, r.Format)
		return h, false, err
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading image: %w", err)
	}
	key := r.Cache.Key(image, r.Client.Model(), r.Format)

	if h, err := r.Cache.Get(key); err == nil {
		return h, true, nil
	}

	h, err := r.Client.ExtractImage(ctx, path, r.Format)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Put(key, h); err != nil {
		logging.Warn("caching ocr result failed", "file", filepath.Base(path), "error", err)
	}
	return h, false, nil
}

// writeResult writes NNN_text.json, NNN_text.txt and, in JSON mode,
// NNN_structured.json.
func (r *Runner) writeResult(h *HymnText) error {
	base := fmt.Sprintf("%03d", h.Number)

	if err := writeJSON(filepath.Join(r.OutputDir, base+"_text.json"), h); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(r.OutputDir, base+"_text.txt"), []byte(h.FullText), 0644); err != nil {
		return fmt.Errorf("writing %s_text.txt: %w", base, err)
	}
	if h.Structured != nil {
		if err := writeJSON(filepath.Join(r.OutputDir, base+"_structured.json"), h.Structured); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) update(p Progress) {
	if r.OnUpdate != nil {
		r.OnUpdate(p)
	}
}

func preview(text string) string {
	const max = 200
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
