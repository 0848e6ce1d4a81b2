package main

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const defaultPromptCharLimit = 4000

// Answer styles accepted by /api/query.
const (
	stylePlain   = "plain"
	styleOutline = "outline"
)

// PromptBuilder renders the task prompts sent to the model. Document text is
// cut to the first CharLimit characters.
type PromptBuilder struct {
	CharLimit int
}

func (p PromptBuilder) excerpt(text string) string {
	limit := p.CharLimit
	if limit <= 0 {
		limit = defaultPromptCharLimit
	}
	return truncateRunes(text, limit)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func (p PromptBuilder) Summary(text string) string {
	return fmt.Sprintf(`Please provide a concise summary of the following text, including a brief description and key points:

%s

Format the response as:
Description: [brief description]
Key Points:
1. [point 1]
2. [point 2]
...`, p.excerpt(text))
}

func (p PromptBuilder) Questions(text string) string {
	return fmt.Sprintf(`Based on the following text, generate 5 relevant questions that would help understand the content better:

%s

Format the response as a list of questions, one per line.`, p.excerpt(text))
}

// Answer builds the question-answering prompt. The outline style asks the
// model for ## headings and bullet points.
func (p PromptBuilder) Answer(text, query, style string) string {
	if style == styleOutline {
		return fmt.Sprintf(`Answer the question using only the information in the document below. If the document only mentions the topic briefly, say so first and then explain it.

Document text:
%s

Question: %s

Formatting rules:
- Start with one introductory bullet point.
- Write every point as a bullet (- ) except headings.
- Use ## for every heading, with a blank line before it and no bullet or asterisk inside it.
- Keep each section under 100 words and use **bold** for key terms.
- Put fenced code blocks with a language tag after a bullet, followed by a bullet explaining the code.
- Never repeat content, explanations, code examples or phrases.

Your answer:`, p.excerpt(text), query)
	}
	return fmt.Sprintf(`Based on the following text, please answer the question. If the answer cannot be found in the text, please say so.

Text:
%s

Question: %s

Please provide a clear and concise answer.`, p.excerpt(text), query)
}

// parseQuestions splits the question list response into one trimmed entry
// per non-empty line.
func parseQuestions(response string) []string {
	questions := []string{}
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, line)
	}
	return questions
}
