package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"
)

const (
	docxDefaultMainPart = "word/document.xml"
	contentTypesPart    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// extractDOCX returns the text of the main document part, one line per paragraph.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a zip archive: %w", err)
	}
	main := docxMainPart(zr)
	f := findZipFile(zr, main)
	if f == nil {
		return "", fmt.Errorf("%s not found", main)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", main, err)
	}
	defer rc.Close()
	return wordprocessingText(rc)
}

// docxMainPart reads the main document part name from [Content_Types].xml,
// falling back to word/document.xml.
func docxMainPart(zr *zip.Reader) string {
	f := findZipFile(zr, contentTypesPart)
	if f == nil {
		return docxDefaultMainPart
	}
	rc, err := f.Open()
	if err != nil {
		return docxDefaultMainPart
	}
	defer rc.Close()
	var ct contentTypes
	if err := xml.NewDecoder(rc).Decode(&ct); err != nil {
		return docxDefaultMainPart
	}
	for _, o := range ct.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return docxDefaultMainPart
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// markupSchema names the elements of an XML text format by local name.
type markupSchema struct {
	text    []string // character data is kept only inside these
	lineEnd []string // closing one of these ends a line
	tab     string
	brk     string
	space   string
}

var (
	wordprocessingML = markupSchema{text: []string{"t"}, lineEnd: []string{"p"}, tab: "tab", brk: "br"}
	drawingML        = markupSchema{text: []string{"t"}, lineEnd: []string{"p"}, brk: "br"}
	openDocumentText = markupSchema{text: []string{"p", "h"}, lineEnd: []string{"p", "h"}, tab: "tab", brk: "line-break", space: "s"}
)

// wordprocessingText streams a WordprocessingML body: w:t runs are concatenated,
// w:tab becomes a tab, w:br a newline, and every w:p ends a line.
func wordprocessingText(r io.Reader) (string, error) {
	return markupText(r, wordprocessingML)
}

// markupText streams r and returns its non-blank lines.
func markupText(r io.Reader, schema markupSchema) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b     strings.Builder
		depth int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch name := t.Name.Local; {
			case slices.Contains(schema.text, name):
				depth++
			case name == schema.tab:
				b.WriteByte('\t')
			case name == schema.brk:
				b.WriteByte('\n')
			case name == schema.space:
				b.WriteByte(' ')
			}
		case xml.EndElement:
			if slices.Contains(schema.text, t.Name.Local) && depth > 0 {
				depth--
			}
			if slices.Contains(schema.lineEnd, t.Name.Local) {
				b.WriteByte('\n')
			}
		case xml.CharData:
			if depth > 0 {
				b.Write(t)
			}
		}
	}
	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n"), nil
}
