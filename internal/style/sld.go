package style

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/publibase/publibase/internal"
)

// SLDExt is the file extension of a Styled Layer Descriptor file.
const SLDExt = ".sld"

// SLDFile is a style file on disk; its name is the file's basename without
// the extension.
type SLDFile struct {
	Name string
	Path string
}

// ListSLDFiles returns the SLD files directly within dir whose style name is
// selected by the filter, sorted by name.
func ListSLDFiles(dir string, filter Filter) ([]SLDFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading style folder: %w", err)
	}
	var files []SLDFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != SLDExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), SLDExt)
		if !filter.Match(name) {
			continue
		}
		files = append(files, SLDFile{Name: name, Path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Zip packages the SLD file into a zip archive holding the single entry
// <name>.sld, the form GeoServer accepts for style uploads.
func (f SLDFile) Zip() ([]byte, error) {
	contents, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(f.Name + SLDExt)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(contents); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSLD writes the style body to <dir>/<name>.sld, returning the path. A
// name that would place the file outside dir is refused.
func WriteSLD(dir, name string, body []byte) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", internal.InvalidParameterError(fmt.Sprintf("invalid style name for a file: %q", name))
	}
	path := filepath.Join(dir, name+SLDExt)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
