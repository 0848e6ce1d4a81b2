package main

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const ruleMatchTimeout = 2 * time.Second

var (
	blankLineSeparator = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	wordToken          = regexp.MustCompile(`[\p{L}\p{N}]+`)
	excessNewlines     = regexp.MustCompile(`\n{3,}`)
	trailingSpace      = regexp.MustCompile(`(?m)[ \t]+$`)
	sentenceSpan       = regexp.MustCompile(`[^\s.!?][^.!?\n]*[.!?]+`)

	adjacentHeadings = mustCompileRule(`^(#+[ \t][^\n]*)\n(?=#+[ \t])`)
	gapRepeat        = mustCompileRule(`(?<=^|[.!?][ \t]+)([^\s.!?][^.!?\n]*[.!?])([ \t]*\n[ \t]*\n\s*)\1[ \t]*`)
)

type phraseRule struct {
	re          *regexp2.Regexp
	replacement string
}

type conceptRule struct {
	word string
	re   *regexp.Regexp
}

// Normalizer removes repeated and near-duplicate content from model output.
// Its rule tables are compiled once and never mutated, so one Normalizer can
// be shared by any number of goroutines.
type Normalizer struct {
	phrases   []phraseRule
	concepts  []conceptRule
	threshold float64
	keep      int
}

// NewNormalizer compiles the phrase table and concept vocabulary.
func NewNormalizer(phrases []PhrasePattern, concepts []string) (*Normalizer, error) {
	n := &Normalizer{
		threshold: defaultSimilarityThreshold,
		keep:      defaultConceptKeep,
	}
	for i, p := range phrases {
		re, err := compileRule(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("phrase pattern %d: %w", i, err)
		}
		n.phrases = append(n.phrases, phraseRule{re: re, replacement: p.Replacement})
	}
	for _, word := range concepts {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		n.concepts = append(n.concepts, conceptRule{
			word: word,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`),
		})
	}
	return n, nil
}

// MustNewNormalizer is NewNormalizer for package-level tables; it panics on a
// pattern that does not compile.
func MustNewNormalizer(phrases []PhrasePattern, concepts []string) *Normalizer {
	n, err := NewNormalizer(phrases, concepts)
	if err != nil {
		panic(err)
	}
	return n
}

var defaultNormalizer = MustNewNormalizer(DefaultPhrasePatterns, DefaultConcepts)

// normalizeResponse runs the default pipeline over a model answer.
func normalizeResponse(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// Normalize runs every stage in order. It never fails: a rule that errors or
// times out leaves its input untouched.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = n.collapsePhrases(s)
	s = n.dropNearDuplicateParagraphs(s)
	s = resolveDuplicateCode(s)
	s = cleanupStructure(s)
	s = n.trimConceptRepeats(s)
	return finalizeText(s)
}

func compileRule(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase|regexp2.Multiline)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = ruleMatchTimeout
	return re, nil
}

func mustCompileRule(pattern string) *regexp2.Regexp {
	re, err := compileRule(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

func replaceRule(re *regexp2.Regexp, s, replacement string) string {
	out, err := re.Replace(s, replacement, -1, -1)
	if err != nil {
		return s
	}
	return out
}

func (n *Normalizer) collapsePhrases(s string) string {
	for _, rule := range n.phrases {
		s = replaceRule(rule.re, s, rule.replacement)
	}
	return s
}

type paragraph struct {
	text    string
	hasCode bool
}

// splitParagraphs splits on blank lines that are not inside fenced code.
func splitParagraphs(s string) []paragraph {
	fences := fencePattern.FindAllStringIndex(s, -1)
	var out []paragraph
	add := func(start, end int) {
		text := strings.TrimSpace(s[start:end])
		if text == "" {
			return
		}
		out = append(out, paragraph{text: text, hasCode: overlapsAny(start, end, fences)})
	}
	start := 0
	for _, sep := range blankLineSeparator.FindAllStringIndex(s, -1) {
		if insideAny(sep[0], fences) {
			continue
		}
		add(start, sep[0])
		start = sep[1]
	}
	add(start, len(s))
	return out
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordToken.FindAllString(text, -1) {
		if utf8.RuneCountInString(w) < minWordLength {
			continue
		}
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// similarity is the overlap coefficient of two word sets. Empty sets are
// never similar to anything.
func similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

// dropNearDuplicateParagraphs keeps a paragraph only if it is not too
// similar to any paragraph accepted before it. Paragraphs carrying fenced
// code are left to the code block stage.
func (n *Normalizer) dropNearDuplicateParagraphs(s string) string {
	paragraphs := splitParagraphs(s)
	kept := make([]string, 0, len(paragraphs))
	var accepted []map[string]struct{}
	for _, p := range paragraphs {
		if p.hasCode {
			kept = append(kept, p.text)
			continue
		}
		words := wordSet(p.text)
		duplicate := false
		for _, prev := range accepted {
			if similarity(words, prev) > n.threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		accepted = append(accepted, words)
		kept = append(kept, p.text)
	}
	return strings.Join(kept, "\n\n")
}

func cleanupStructure(s string) string {
	s = mapProse(s, func(prose string) string {
		prose = replaceRule(adjacentHeadings, prose, "${1}\n\n")
		return replaceRule(gapRepeat, prose, "${1}${2}")
	})
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return trailingSpace.ReplaceAllString(s, "")
}

type span struct{ start, end int }

// trimConceptRepeats keeps at most n.keep sentences per concept, preferring
// the longest ones. Each concept is evaluated against the text left by the
// concepts before it.
func (n *Normalizer) trimConceptRepeats(s string) string {
	for _, c := range n.concepts {
		var hits []span
		for _, sp := range proseSentences(s) {
			if c.re.MatchString(s[sp.start:sp.end]) {
				hits = append(hits, sp)
			}
		}
		if len(hits) <= n.keep {
			continue
		}
		ranked := make([]span, len(hits))
		copy(ranked, hits)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].end-ranked[i].start > ranked[j].end-ranked[j].start
		})
		s = removeSpans(s, ranked[n.keep:])
	}
	return s
}

func proseSentences(s string) []span {
	var out []span
	for _, r := range proseRanges(s) {
		for _, loc := range sentenceSpan.FindAllStringIndex(s[r.start:r.end], -1) {
			out = append(out, span{r.start + loc[0], r.start + loc[1]})
		}
	}
	return out
}

func finalizeText(s string) string {
	s = trailingSpace.ReplaceAllString(s, "")
	s = excessNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// removeSpans deletes non-overlapping spans, highest offset first so the
// remaining offsets stay valid.
func removeSpans(s string, spans []span) string {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start > sorted[j].start })
	for _, sp := range sorted {
		s = s[:sp.start] + s[sp.end:]
	}
	return s
}

// proseRanges returns the parts of s outside fenced code blocks.
func proseRanges(s string) []span {
	var out []span
	pos := 0
	for _, f := range fencePattern.FindAllStringIndex(s, -1) {
		if f[0] > pos {
			out = append(out, span{pos, f[0]})
		}
		pos = f[1]
	}
	if pos < len(s) {
		out = append(out, span{pos, len(s)})
	}
	return out
}

func mapProse(s string, fn func(string) string) string {
	var b strings.Builder
	pos := 0
	for _, r := range proseRanges(s) {
		b.WriteString(s[pos:r.start])
		b.WriteString(fn(s[r.start:r.end]))
		pos = r.end
	}
	b.WriteString(s[pos:])
	return b.String()
}

func insideAny(pos int, ranges [][]int) bool {
	for _, r := range ranges {
		if r[0] <= pos && pos < r[1] {
			return true
		}
	}
	return false
}

func overlapsAny(start, end int, ranges [][]int) bool {
	for _, r := range ranges {
		if r[0] < end && start < r[1] {
			return true
		}
	}
	return false
}
