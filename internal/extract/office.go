package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	pptxSlidePrefix     = "ppt/slides/slide"
	openDocumentContent = "content.xml"
)

// extractPPTX returns the text of every slide in slide order, slides separated
// by a blank line.
func extractPPTX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a zip archive: %w", err)
	}
	var slides []*zip.File
	for _, f := range zr.File {
		if slideNumber(f.Name) > 0 {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})
	texts := make([]string, 0, len(slides))
	for _, f := range slides {
		text, err := zipEntryText(f, drawingML)
		if err != nil {
			return "", err
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

// slideNumber returns N for ppt/slides/slideN.xml and 0 for any other entry.
func slideNumber(name string) int {
	rest, ok := strings.CutPrefix(name, pptxSlidePrefix)
	if !ok {
		return 0
	}
	rest, ok = strings.CutSuffix(rest, ".xml")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0
	}
	return n
}

// extractOpenDocument handles presentations (.odp) and spreadsheets (.ods),
// whose text paragraphs all live in content.xml.
func extractOpenDocument(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a zip archive: %w", err)
	}
	f := findZipFile(zr, openDocumentContent)
	if f == nil {
		return "", fmt.Errorf("%s not found", openDocumentContent)
	}
	return zipEntryText(f, openDocumentText)
}

func zipEntryText(f *zip.File, schema markupSchema) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	text, err := markupText(rc, schema)
	if err != nil {
		return "", fmt.Errorf("%s: %w", f.Name, err)
	}
	return text, nil
}
