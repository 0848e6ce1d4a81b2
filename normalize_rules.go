package main

// PhrasePattern is one substitution of the phrase collapser. Patterns use
// regexp2 syntax (backreferences and lookbehind are allowed) and are matched
// case-insensitively with ^ and $ anchoring at line boundaries.
type PhrasePattern struct {
	Pattern     string
	Replacement string
}

// Lead-in tail consumed together with a redundant filler opener, e.g.
// "According to the text, ".
const leadInTail = `(?:[ \t]+the[ \t]+(?:document|text|content|passage)(?:[ \t]+provided)?)?[ \t]*,?[ \t]*`

func fillerRule(opener, followers string) PhrasePattern {
	return PhrasePattern{
		Pattern:     `\b(` + opener + `[^.!?\n]*[.!?])\s*(?:` + followers + `)\b` + leadInTail,
		Replacement: "${1} ",
	}
}

const sourceFollowers = `Based on|According to|As mentioned`

// DefaultPhrasePatterns is applied in order; every rule sees the output of
// the rules before it.
var DefaultPhrasePatterns = []PhrasePattern{
	fillerRule(`I appreciate your (?:query|question)`, `I appreciate your (?:query|question)|Let me|Based on`),
	fillerRule(`Based on the (?:document|text|content)`, sourceFollowers),
	fillerRule(`According to the (?:document|text|content)`, sourceFollowers),
	fillerRule(`Looking at the (?:document|text|content)`, sourceFollowers),
	fillerRule(`From the (?:document|text|content)`, sourceFollowers),
	fillerRule(`Let me (?:explain|help you understand)`, `Let me|I'll|To (?:put it simply|clarify|explain)`),
	fillerRule(`I can help you with that`, `Let me|I'll`),

	// a sentence followed directly by copies of itself
	{
		Pattern:     `(?<=^|[.!?][ \t]+)([^\s.!?][^.!?\n]*[.!?])(?:[ \t]*\1)+`,
		Replacement: "${1}",
	},

	fillerRule(`This means`, `This means|In other words|That is`),
	fillerRule(`In other words`, `This means|In other words|That is`),
	fillerRule(`To clarify`, `This means|In other words|To clarify`),
}

// DefaultConcepts is the vocabulary of programming concepts whose mentions
// are capped per response.
var DefaultConcepts = []string{
	"function", "method", "class", "object", "array",
	"variable", "constant", "loop", "conditional", "if",
	"for", "while", "parameter", "argument", "return",
	"value", "string", "boolean", "number", "integer", "float",
}

const (
	defaultSimilarityThreshold = 0.60
	defaultConceptKeep         = 2
	minWordLength              = 4
)
