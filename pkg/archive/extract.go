// Package archive extracts interpreter distribution archives. Standalone
// CPython builds ship as .tar.gz or .tar.zst on Unix and .zip on Windows,
// and rely on intra-archive symlinks (bin/python3 -> python3.x), so tar
// symlink entries are materialized rather than skipped.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"gdl/pkg/config"
)

// Extensions returns the archive extensions an interpreter distribution may
// use on the given operating system.
func Extensions(os config.OSType) []string {
	switch os {
	case config.OSWindows:
		return []string{".zip", ".tar.gz", ".tgz"}
	default: // Linux, Darwin
		return []string{".tar.gz", ".tar.zst", ".tgz", ".tar"}
	}
}

// IsSupported returns true if the filename has a supported archive
// extension for the given OS.
func IsSupported(os config.OSType, filename string) bool {
	for _, ext := range Extensions(os) {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// Extract extracts the contents of the archive at src into the directory
// dest. It supports .zip, .tar, .tar.gz, .tgz, and .tar.zst formats.
func Extract(src string, dest string) error {
	if strings.HasSuffix(src, ".zip") {
		return extractZip(src, dest)
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	var r io.Reader = f

	switch {
	case strings.HasSuffix(src, ".tar.gz") || strings.HasSuffix(src, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	case strings.HasSuffix(src, ".tar.zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(src, ".tar"):
		// Plain tar, reader is the file itself
	default:
		return fmt.Errorf("unsupported archive format: %s", src)
	}

	return extractTar(r, dest)
}

func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		err := extractEntry(f.Name, f.FileInfo(), dest, func() (io.ReadCloser, error) {
			return f.Open()
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}

		if header.Typeflag == tar.TypeSymlink {
			if err := extractSymlink(header.Name, header.Linkname, dest); err != nil {
				return err
			}
			continue
		}

		err = extractEntry(header.Name, header.FileInfo(), dest, func() (io.ReadCloser, error) {
			return io.NopCloser(tr), nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// securePath joins name under dest and rejects entries that escape it
// (Zip Slip protection).
func securePath(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return target, nil
}

func extractSymlink(name, linkname, dest string) error {
	target, err := securePath(dest, name)
	if err != nil {
		return err
	}
	// Absolute link targets could point outside the runtime dir.
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("illegal absolute symlink in archive: %s -> %s", name, linkname)
	}
	// The resolved link target must stay inside the extraction root.
	resolved := filepath.Join(filepath.Dir(target), linkname)
	if !strings.HasPrefix(resolved, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal symlink target in archive: %s -> %s", name, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", target, err)
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	if err := os.Symlink(linkname, target); err != nil {
		return fmt.Errorf("failed to create symlink %s: %w", target, err)
	}
	return nil
}

// extractEntry extracts a single file or directory entry. opener returns a
// reader for the entry content.
func extractEntry(name string, info os.FileInfo, dest string, opener func() (io.ReadCloser, error)) error {
	target, err := securePath(dest, name)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", target, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", target, err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	defer f.Close()

	rc, err := opener()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", name, err)
	}
	// For tar the reader is a NopCloser over the stream; closing it must
	// not close the stream. For zip it is a real file reader.
	defer rc.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("failed to write file %s: %w", target, err)
	}
	return nil
}
