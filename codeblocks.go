package main

import (
	"regexp"
	"strings"
)

var (
	fencePattern = regexp.MustCompile("(?s)```([\\w+#.-]*)[ \\t]*\\n(.*?)```")

	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment   = regexp.MustCompile(`//[^\n]*`)
	hashComment   = regexp.MustCompile(`#[^\n]*`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

type codeBlock struct {
	lang  string
	raw   string
	key   string
	start int
	end   int
}

func findCodeBlocks(s string) []codeBlock {
	var blocks []codeBlock
	for _, m := range fencePattern.FindAllStringSubmatchIndex(s, -1) {
		raw := strings.TrimSpace(s[m[4]:m[5]])
		blocks = append(blocks, codeBlock{
			lang:  strings.ToLower(s[m[2]:m[3]]),
			raw:   raw,
			key:   codeKey(raw),
			start: m[0],
			end:   m[1],
		})
	}
	return blocks
}

// codeKey is the comparison form of a code body: comments dropped,
// whitespace collapsed, lowercased.
func codeKey(code string) string {
	code = blockComment.ReplaceAllString(code, " ")
	code = lineComment.ReplaceAllString(code, " ")
	code = hashComment.ReplaceAllString(code, " ")
	code = whitespaceRun.ReplaceAllString(code, " ")
	return strings.ToLower(strings.TrimSpace(code))
}

func (b codeBlock) duplicates(o codeBlock) bool {
	if b.lang != o.lang {
		return false
	}
	return b.key == o.key || strings.Contains(b.key, o.key) || strings.Contains(o.key, b.key)
}

// resolveDuplicateCode removes fenced blocks that repeat or are subsumed by
// another block of the same language. The longer body wins; on a tie the
// earlier block stays.
func resolveDuplicateCode(s string) string {
	blocks := findCodeBlocks(s)
	if len(blocks) < 2 {
		return s
	}
	dropped := make([]bool, len(blocks))
	for i := range blocks {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(blocks); j++ {
			if dropped[j] || !blocks[i].duplicates(blocks[j]) {
				continue
			}
			if len(blocks[i].raw) >= len(blocks[j].raw) {
				dropped[j] = true
				continue
			}
			dropped[i] = true
			break
		}
	}

	var losers []span
	for i, b := range blocks {
		if dropped[i] {
			losers = append(losers, span{b.start, b.end})
		}
	}
	return removeSpans(s, losers)
}
