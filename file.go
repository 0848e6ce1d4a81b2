package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type docKind string

const (
	kindUnknown docKind = ""
	kindPDF     docKind = "pdf"
	kindDOCX    docKind = "docx"
	kindODT     docKind = "odt"
)

var (
	errNoFile          = errors.New("no file uploaded")
	errNoFilename      = errors.New("no file selected")
	errUnsupportedType = errors.New("file must be a PDF, DOCX or ODT document")
)

func isUploadError(err error) bool {
	return errors.Is(err, errNoFile) || errors.Is(err, errNoFilename) || errors.Is(err, errUnsupportedType)
}

// upload is a received document stored on disk until extraction finishes.
type upload struct {
	Path     string
	Filename string
	Kind     docKind
}

func (u upload) Remove() error {
	return os.Remove(u.Path)
}

// receiveUpload validates the multipart "file" field and writes it to a
// uniquely named file in dir.
func receiveUpload(c *fiber.Ctx, dir string) (upload, error) {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return upload{}, errNoFile
	}
	if strings.TrimSpace(fh.Filename) == "" {
		return upload{}, errNoFilename
	}
	kind := detectKindFromName(fh.Filename)
	if kind == kindUnknown {
		return upload{}, errUnsupportedType
	}

	data, err := readMultipartFile(fh)
	if err != nil {
		return upload{}, err
	}
	if sniffed := detectKind(data); sniffed != kindUnknown {
		kind = sniffed
	}

	path := filepath.Join(dir, "docqa-"+uuid.NewString()+"."+string(kind))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return upload{}, fmt.Errorf("cannot store uploaded file: %w", err)
	}
	return upload{Path: path, Filename: fh.Filename, Kind: kind}, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read uploaded file: %w", err)
	}
	return data, nil
}

func detectKindFromName(filename string) docKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return kindPDF
	case ".docx":
		return kindDOCX
	case ".odt":
		return kindODT
	}
	return kindUnknown
}

// detectKind inspects magic bytes and, for zip containers, the entry names.
func detectKind(data []byte) docKind {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return kindPDF
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		return kindUnknown
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return kindUnknown
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return kindDOCX
		case "content.xml":
			return kindODT
		}
	}
	return kindUnknown
}
