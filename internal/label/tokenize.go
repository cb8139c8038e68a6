// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package label

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholder replaces stop words and short tokens. Phrases never span it.
const Placeholder = "#"

// DefaultMinWordLen is the shortest token kept.
const DefaultMinWordLen = 3

var (
	htmlTag       = regexp.MustCompile(`<[^>]*>`)
	sentenceBreak = regexp.MustCompile(`[.!?](\s+|$)|\n`)
	wordPattern   = regexp.MustCompile(`[a-z_-]+`)
)

// Lemmatizer maps an inflected word to its dictionary form.
type Lemmatizer interface {
	Lemmatize(word string) string
}

// Tokenizer turns documents into sentences of normalized tokens. It is
// safe for concurrent use once built.
type Tokenizer struct {
	Lemmatizer Lemmatizer
	StopWords  map[string]bool
	MinWordLen int
}

// NewTokenizer returns a Tokenizer with the English stop-word list and the
// noun lemmatizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		Lemmatizer: NounLemmatizer{},
		StopWords:  StopWords(),
		MinWordLen: DefaultMinWordLen,
	}
}

// Tokenize strips markup, folds case and accents, splits text into
// sentences and sentences into lemmatized words. Stop words and words
// shorter than MinWordLen become Placeholder.
func (t *Tokenizer) Tokenize(text string) [][]string {
	text = htmlTag.ReplaceAllString(strings.TrimSpace(text), "")
	text = strings.ToLower(fold(text))

	minLen := t.MinWordLen
	if minLen <= 0 {
		minLen = DefaultMinWordLen
	}

	var sentences [][]string
	for _, sent := range sentenceBreak.Split(text, -1) {
		words := wordPattern.FindAllString(sent, -1)
		if len(words) == 0 {
			continue
		}
		tokens := make([]string, len(words))
		for i, w := range words {
			lemma := w
			if t.Lemmatizer != nil {
				lemma = t.Lemmatizer.Lemmatize(w)
			}
			if t.StopWords[w] || t.StopWords[lemma] || len(lemma) < minLen {
				tokens[i] = Placeholder
				continue
			}
			tokens[i] = lemma
		}
		sentences = append(sentences, tokens)
	}
	return sentences
}

// fold decomposes accented characters and drops the combining marks.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NounLemmatizer reduces plural nouns to their singular form.
type NounLemmatizer struct{}

// keepAsIs lists words whose trailing "s" is not a plural marker.
var keepAsIs = map[string]bool{
	"always": true, "atlas": true, "bias": true, "canvas": true, "chaos": true,
	"ethos": true, "gas": true, "kudos": true, "lens": true, "news": true,
	"pathos": true, "perhaps": true,
}

// Lemmatize returns the singular form of word. Hyphenated compounds and
// words with non-plural endings are returned unchanged.
func (NounLemmatizer) Lemmatize(word string) string {
	if keepAsIs[word] || strings.ContainsAny(word, "-_") {
		return word
	}
	for _, suffix := range []string{"us", "ss", "is", "ics", "ous"} {
		if strings.HasSuffix(word, suffix) {
			return word
		}
	}
	if !strings.HasSuffix(word, "s") {
		return word
	}
	return inflection.Singular(word)
}
