package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"héllo", 2, "hé"},
		{"short", 10, "short"},
		{"", 3, ""},
		{"abc", 3, "abc"},
	}
	for _, tc := range cases {
		if got := truncateRunes(tc.in, tc.n); got != tc.want {
			t.Fatalf("truncateRunes(%q, %d): want=%q got=%q", tc.in, tc.n, tc.want, got)
		}
	}
}

func TestPromptsUseExcerpt(t *testing.T) {
	p := PromptBuilder{CharLimit: 5}
	text := "abcdefghij"
	for name, prompt := range map[string]string{
		"summary":   p.Summary(text),
		"questions": p.Questions(text),
		"answer":    p.Answer(text, "what?", stylePlain),
		"outline":   p.Answer(text, "what?", styleOutline),
	} {
		if !strings.Contains(prompt, "abcde") || strings.Contains(prompt, "abcdef") {
			t.Fatalf("%s prompt not truncated: %q", name, prompt)
		}
	}
}

func TestPromptDefaultLimit(t *testing.T) {
	text := strings.Repeat("x", defaultPromptCharLimit+10)
	got := PromptBuilder{}.Summary(text)
	if strings.Contains(got, strings.Repeat("x", defaultPromptCharLimit+1)) {
		t.Fatalf("default limit not applied")
	}
}

func TestAnswerPromptStyles(t *testing.T) {
	p := PromptBuilder{}
	plain := p.Answer("doc", "Why?", stylePlain)
	if !strings.Contains(plain, "Question: Why?") || !strings.Contains(plain, "please say so") {
		t.Fatalf("plain prompt: %q", plain)
	}
	outline := p.Answer("doc", "Why?", styleOutline)
	if !strings.Contains(outline, "Use ## for every heading") {
		t.Fatalf("outline prompt: %q", outline)
	}
}

func TestParseQuestions(t *testing.T) {
	got := parseQuestions("1. What is A?\n\n  2. Why B?  \n\n")
	want := []string{"1. What is A?", "2. Why B?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want=%q got=%q", want, got)
	}
	if got := parseQuestions(""); got == nil || len(got) != 0 {
		t.Fatalf("empty response: want empty slice got %#v", got)
	}
}
