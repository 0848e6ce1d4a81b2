package main

import (
	"bytes"
	"testing"
	"time"
)

var exportTime = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func TestRenderChatText(t *testing.T) {
	req := ExportRequest{
		Title: "paper.pdf",
		Messages: []ChatMessage{
			{Sender: "user", Message: "What is it about?"},
			{Sender: "assistant", Message: "Caching."},
		},
	}
	want := "Chat with PDF: paper.pdf\n" +
		"Date: " + exportTime.Format(time.RFC1123) + "\n\n" +
		"You: What is it about?\n\n" +
		"AI: Caching.\n\n"
	if got := renderChatText(req, exportTime); got != want {
		t.Fatalf("want=%q got=%q", want, got)
	}
}

func TestRenderChatPDF(t *testing.T) {
	req := ExportRequest{
		Title:    "notes",
		Messages: []ChatMessage{{Sender: "user", Message: "Ce înseamnă?"}},
	}
	data, err := renderChatPDF(req, exportTime)
	if err != nil {
		t.Fatalf("renderChatPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
}
