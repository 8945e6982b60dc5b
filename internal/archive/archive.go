// Package archive packs a processed hymn library into a portable
// tar.xz bundle and unpacks it again, so a library prepared on one
// machine can move to the church laptop as a single file.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/mvccc/zanmei/internal/logging"
)

// Pack writes every markdown hymn under dir into a tar.xz archive at
// out. Entry names are slash paths relative to dir.
func Pack(dir, out string) (int, error) {
	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	xzw, err := xz.NewWriter(f)
	if err != nil {
		return 0, fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xzw)

	count := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}

		hdr := &tar.Header{
			Name:    filepath.ToSlash(rel),
			Mode:    0644,
			Size:    int64(len(data)),
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing header for %s: %w", rel, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("closing tar: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return 0, fmt.Errorf("closing xz: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing archive: %w", err)
	}

	logging.Info("hymn library packed", "archive", out, "hymns", count)
	return count, nil
}

// Unpack extracts an archive produced by Pack into dir. Gzip archives
// are accepted too for bundles produced by other tools.
func Unpack(in, dir string) (int, error) {
	f, err := os.Open(in)
	if err != nil {
		return 0, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	var reader io.Reader
	switch {
	case strings.HasSuffix(in, ".tar.xz"), strings.HasSuffix(in, ".txz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case strings.HasSuffix(in, ".tar.gz"), strings.HasSuffix(in, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	default:
		return 0, fmt.Errorf("unsupported archive format: %s", in)
	}

	tr := tar.NewReader(reader)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return 0, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return 0, fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}

		out, err := os.Create(target)
		if err != nil {
			return 0, fmt.Errorf("creating %s: %w", hdr.Name, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return 0, fmt.Errorf("extracting %s: %w", hdr.Name, err)
		}
		if err := out.Close(); err != nil {
			return 0, fmt.Errorf("closing %s: %w", hdr.Name, err)
		}
		count++
	}

	logging.Info("hymn library unpacked", "archive", in, "hymns", count)
	return count, nil
}

// safeJoin rejects entry names that would escape the target directory.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes target directory: %s", name)
	}
	return target, nil
}
