package export

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/hue/internal/security"
)

// Archive is a bundle container format.
type Archive string

const (
	ArchiveTarXz Archive = "tar.xz"
	ArchiveTarGz Archive = "tar.gz"
	ArchiveZip   Archive = "zip"
)

// maxBundleFile bounds each file read back from a bundle.
const maxBundleFile = 10 * 1024 * 1024

// Archives returns the supported bundle formats.
func Archives() []Archive {
	return []Archive{ArchiveTarXz, ArchiveTarGz, ArchiveZip}
}

// ArchiveFromPath detects the bundle format from a file name.
func ArchiveFromPath(path string) (Archive, error) {
	switch {
	case strings.HasSuffix(path, ".tar.xz"), strings.HasSuffix(path, ".txz"):
		return ArchiveTarXz, nil
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return ArchiveTarGz, nil
	case strings.HasSuffix(path, ".zip"):
		return ArchiveZip, nil
	}
	return "", fmt.Errorf("unsupported bundle: %s (valid: %v)", path, Archives())
}

// Extension returns the file extension for the archive, including the dot.
func (a Archive) Extension() string {
	return "." + string(a)
}

// File is one file in a bundle.
type File struct {
	Name string
	Data []byte
}

// Files renders in in every format, naming each file stem plus the format extension.
func Files(stem string, in Input) ([]File, error) {
	stem = security.SanitizeFilename(stem)
	var files []File
	for _, f := range Formats() {
		data, err := Render(f, in)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", f, err)
		}
		files = append(files, File{Name: stem + f.Extension(), Data: data})
	}
	return files, nil
}

// Bundle writes files to w as an archive.
func Bundle(w io.Writer, archive Archive, files []File) error {
	for _, f := range files {
		if err := security.ValidateFilePath(f.Name, "bundle"); err != nil {
			return fmt.Errorf("invalid bundle entry %q: %w", f.Name, err)
		}
	}

	switch archive {
	case ArchiveTarXz:
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create xz writer: %w", err)
		}
		if err := writeTar(xzw, files); err != nil {
			return err
		}
		if err := xzw.Close(); err != nil {
			return fmt.Errorf("failed to finish xz stream: %w", err)
		}
		return nil
	case ArchiveTarGz:
		gzw := gzip.NewWriter(w)
		if err := writeTar(gzw, files); err != nil {
			return err
		}
		if err := gzw.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
		return nil
	case ArchiveZip:
		return writeZip(w, files)
	default:
		return fmt.Errorf("unsupported bundle format: %s (valid: %v)", archive, Archives())
	}
}

func writeTar(w io.Writer, files []File) error {
	tw := tar.NewWriter(w)
	modTime := time.Now()
	for _, f := range files {
		hdr := &tar.Header{
			Name:    f.Name,
			Mode:    0o644,
			Size:    int64(len(f.Data)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", f.Name, err)
		}
		if _, err := tw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar archive: %w", err)
	}
	return nil
}

func writeZip(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.Create(f.Name)
		if err != nil {
			return fmt.Errorf("failed to add %s to zip: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zip archive: %w", err)
	}
	return nil
}

// ReadBundle reads the files of an archive written by Bundle.
// Entries that would escape the bundle or exceed the size limit are rejected.
func ReadBundle(data []byte, archive Archive) ([]File, error) {
	switch archive {
	case ArchiveTarXz:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return readTar(xzr)
	case ArchiveTarGz:
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		return readTar(gzr)
	case ArchiveZip:
		return readZip(data)
	default:
		return nil, fmt.Errorf("unsupported bundle format: %s (valid: %v)", archive, Archives())
	}
}

func readTar(r io.Reader) ([]File, error) {
	tr := tar.NewReader(r)
	var files []File
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeDir {
			continue
		}
		f, err := readEntry(header.Name, tr)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
}

func readZip(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zip reader: %w", err)
	}
	var files []File
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in archive: %w", zf.Name, err)
		}
		f, err := readEntry(zf.Name, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readEntry(name string, r io.Reader) (File, error) {
	if err := security.ValidateFilePath(name, "bundle"); err != nil {
		return File{}, fmt.Errorf("invalid bundle entry %q: %w", name, err)
	}
	data, err := io.ReadAll(security.NewLimitedReader(r, maxBundleFile))
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return File{Name: name, Data: data}, nil
}
