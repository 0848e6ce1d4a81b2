package main

import (
	"regexp"
	"strings"
)

var (
	headingLine  = regexp.MustCompile(`^(#+)\s+(.*)$`)
	bulletPrefix = regexp.MustCompile(`^(?:[-*•]\s+)+`)
	numberedItem = regexp.MustCompile(`^\d+[.)]\s+`)
)

// formatOutline rewrites an answer as headings followed by bullet lists.
// Headings deeper than ## are flattened to ##, every prose line becomes a
// "- " bullet and each heading is preceded by a blank line. Fenced code is
// copied unchanged.
func formatOutline(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := func() {
		if len(out) > 0 && out[len(out)-1] != "" {
			out = append(out, "")
		}
	}

	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		if trimmed == "" {
			blank()
			continue
		}

		if m := headingLine.FindStringSubmatch(trimmed); m != nil {
			level := m[1]
			if len(level) > 2 {
				level = "##"
			}
			title := bulletPrefix.ReplaceAllString(m[2], "")
			blank()
			out = append(out, level+" "+strings.TrimSpace(title))
			continue
		}

		if numberedItem.MatchString(trimmed) {
			out = append(out, trimmed)
			continue
		}
		out = append(out, "- "+bulletPrefix.ReplaceAllString(trimmed, ""))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
