package main

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

var errNoText = errors.New("no text could be extracted from document")

// TextExtractor pulls plain text out of a stored upload.
type TextExtractor interface {
	ExtractText(path string, kind docKind) (string, error)
}

type documentExtractor struct {
	log *Logger
}

func newDocumentExtractor(log *Logger) *documentExtractor {
	return &documentExtractor{log: log}
}

func (e *documentExtractor) ExtractText(path string, kind docKind) (string, error) {
	var (
		text string
		err  error
	)
	switch kind {
	case kindPDF:
		text, err = extractPDF(path)
		if err != nil {
			e.log.Warn("mupdf extraction failed, using fallback reader", "path", path, "error", err)
			text, err = extractPDFFallback(path)
		}
	case kindDOCX:
		text, err = extractZipXML(path, "word/document.xml")
	case kindODT:
		text, err = extractZipXML(path, "content.xml")
	default:
		return "", fmt.Errorf("unsupported file type: %q", kind)
	}
	if err != nil {
		return "", err
	}

	text = cleanExtractedText(text)
	if text == "" {
		return "", errNoText
	}
	return text, nil
}

func extractPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("cannot open PDF with MuPDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i+1, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractPDFFallback uses the pure Go reader for files MuPDF rejects.
func extractPDFFallback(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return string(data), nil
}

// extractZipXML reads the named XML entry of a DOCX or ODT container.
func extractZipXML(path, entry string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("cannot open document archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("cannot open %s: %w", entry, err)
		}
		defer rc.Close()
		return textFromXML(rc)
	}
	return "", fmt.Errorf("%s not found in document", entry)
}

// textFromXML keeps character data and turns paragraph, heading, break and
// tab elements into whitespace. Element names are matched without their
// namespace so WordprocessingML and OpenDocument share one walker.
func textFromXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("cannot parse document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tab":
				b.WriteByte('\t')
			case "s":
				b.WriteByte(' ')
			case "br", "line-break":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "h":
				b.WriteByte('\n')
			}
		case xml.CharData:
			b.Write(t)
		}
	}
	return b.String(), nil
}

var (
	invisibleChars = strings.NewReplacer("\u200B", "", "\u200C", "", "\u200D", "", "\uFEFF", "")
	inlineSpaces   = regexp.MustCompile(`[ \t\f\v]+`)
)

// cleanExtractedText drops invisible characters, collapses runs of spaces
// and blank lines but keeps paragraph breaks.
func cleanExtractedText(text string) string {
	text = invisibleChars.Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaces.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
