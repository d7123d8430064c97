// Package extract turns uploaded documents into plain text for ingestion.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

type extractFunc func(content []byte) (string, error)

var formats = map[string]extractFunc{
	"":      extractPlain,
	".txt":  extractPlain,
	".md":   extractPlain,
	".rst":  extractPlain,
	".csv":  extractPlain,
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractExcel,
	".pptx": extractPPTX,
	".odp":  extractOpenDocument,
	".ods":  extractOpenDocument,
	".odt":  extractWithCat,
	".rtf":  extractWithCat,
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the file extensions ExtractBytes accepts, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(formats))
	for ext := range formats {
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on ext, which includes the leading
// dot (".pdf"). An unknown extension or a document that cannot be parsed is a bad request.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	fn, ok := formats[ext]
	if !ok {
		return "", errortypes.BadRequest("unsupported file type %q (supported: %s)", ext, strings.Join(SupportedExtensions(), ", "))
	}
	text, err := fn(content)
	if err != nil {
		return "", errortypes.BadRequest("extract %s: %v", strings.TrimPrefix(ext, "."), err)
	}
	return text, nil
}
