package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// TextFile reads plain text sources. Image formats would need an OCR
// backend and are rejected.
type TextFile struct {
	extensions map[string]struct{}
}

// NewTextFile creates a plain-text extractor accepting the given file
// extensions (with the leading dot). Matching is case-insensitive.
func NewTextFile(extensions []string) *TextFile {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &TextFile{extensions: exts}
}

// Extract returns the file contents as text.
func (t *TextFile) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := t.extensions[ext]; !ok {
		return "", fmt.Errorf("%w: unsupported extension %q", domain.ErrExtractionFailed, ext)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrExtractionFailed, path, err)
	}
	return string(data), nil
}
