package textrank

import (
	"strings"
	"unicode"
)

// defaultStopwords is the built-in English stopword list applied when
// none is configured.
var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "been", "but", "by",
	"for", "from", "had", "has", "have", "in", "into", "is", "it",
	"its", "may", "more", "most", "not", "of", "on", "or", "such",
	"than", "that", "the", "their", "then", "there", "these", "this",
	"those", "to", "was", "were", "which", "while", "will", "with",
	"we", "our", "also", "can", "could", "during", "each", "both",
	"between", "after", "before", "using", "used", "however", "within",
}

// Tokenizer splits text into normalized word tokens with stopword
// removal.
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a tokenizer. A nil stopword list selects the
// built-in defaults.
func NewTokenizer(stopwords []string) *Tokenizer {
	if stopwords == nil {
		stopwords = defaultStopwords
	}
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize splits text into lowercase tokens, dropping stopwords,
// single characters, and pure-numeric tokens. Mixed tokens like
// "gpt-4" or "caco-2" are kept.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := cleanToken(current.String())
		current.Reset()
		if word == "" || len(word) <= 1 || isNumericOnly(word) {
			return
		}
		if _, stop := t.stopwords[word]; stop {
			return
		}
		tokens = append(tokens, word)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func cleanToken(token string) string {
	token = strings.Trim(token, "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}

func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

// abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]struct{}{
	"fig": {}, "figs": {}, "et": {}, "al": {}, "e.g": {}, "i.e": {},
	"vs": {}, "dr": {}, "approx": {}, "no": {}, "cf": {},
}

// SplitSentences breaks text into sentences on terminal punctuation,
// skipping common abbreviations and decimal points.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Decimal point or version number: digit on both sides.
		if r == '.' && i > 0 && i+1 < len(runes) &&
			unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(current.String()) {
			continue
		}
		// Require whitespace or end of text after the terminator.
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}

		sentence := strings.TrimSpace(current.String())
		current.Reset()
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isAbbreviation(s string) bool {
	s = strings.TrimSuffix(s, ".")
	idx := strings.LastIndexFunc(s, unicode.IsSpace)
	word := strings.ToLower(s[idx+1:])
	_, ok := abbreviations[word]
	return ok
}
