package ocr

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// ErrCacheMiss means no cached result exists for an image.
var ErrCacheMiss = errors.New("ocr result not cached")

// Cache stores OCR results keyed by the BLAKE3 hash of the image bytes
// together with the model and format used, so re-running a batch skips
// images that did not change.
//
// Entries live at <root>/<first2>/<hash>.json.
type Cache struct {
	root string
}

// NewCache returns a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating ocr cache: %w", err)
	}
	return &Cache{root: dir}, nil
}

// Key hashes image bytes plus the model and format into a cache key.
func (c *Cache) Key(image []byte, model string, format Format) string {
	h := blake3.New()
	h.Write(image)
	h.Write([]byte("\x00" + model + "\x00" + string(format)))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.root, key[:2], key+".json")
}

// Get loads a cached result, or ErrCacheMiss.
func (c *Cache) Get(key string) (*HymnText, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	var h HymnText
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing cache entry: %w", err)
	}
	return &h, nil
}

// Put stores a result under key, atomically.
func (c *Cache) Put(key string, h *HymnText) error {
	dir := filepath.Join(c.root, key[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path(key)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}
