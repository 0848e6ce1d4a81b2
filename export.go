package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	exportFormatText = "txt"
	exportFormatPDF  = "pdf"
)

type ChatMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type ExportRequest struct {
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
	Format   string        `json:"format"`
}

func senderLabel(sender string) string {
	if strings.EqualFold(sender, "user") {
		return "You"
	}
	return "AI"
}

func exportHeader(title string, at time.Time) []string {
	return []string{
		"Chat with PDF: " + title,
		"Date: " + at.Format(time.RFC1123),
	}
}

// renderChatText formats a transcript as plain text.
func renderChatText(req ExportRequest, at time.Time) string {
	var b strings.Builder
	for _, line := range exportHeader(req.Title, at) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "%s: %s\n\n", senderLabel(m.Sender), m.Message)
	}
	return b.String()
}

// renderChatPDF lays the transcript out on A4 pages. Text is translated to
// cp1252 for the core fonts, so characters outside it are lost.
func renderChatPDF(req ExportRequest, at time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	header := exportHeader(req.Title, at)
	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 8, tr(header[0]), "", "", false)
	pdf.Ln(2)
	pdf.SetFont("Arial", "I", 10)
	pdf.Cell(0, 6, tr(header[1]))
	pdf.Ln(12)

	for _, m := range req.Messages {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, senderLabel(m.Sender)+":")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(m.Message), "", "", false)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
