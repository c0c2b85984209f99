package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// DefaultStopWords are dropped from questions and documents before keyword scoring
var DefaultStopWords = []string{
	"a", "about", "an", "and", "are", "as", "at", "be", "been", "but", "by",
	"can", "could", "did", "do", "does", "for", "from", "had", "has", "have",
	"how", "i", "if", "in", "into", "is", "it", "its", "me", "my", "of", "on",
	"or", "our", "should", "so", "that", "the", "their", "them", "there",
	"these", "they", "this", "to", "was", "we", "were", "what", "when", "where",
	"which", "who", "why", "will", "with", "would", "you", "your",
}

// Tokenizer splits text into lowercase word tokens
type Tokenizer struct {
	stopWords      map[string]struct{}
	minTokenLength int
}

// NewTokenizer creates a tokenizer. Tokens shorter than minTokenLength runes are dropped.
func NewTokenizer(stopWords []string, minTokenLength int) *Tokenizer {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	if minTokenLength < 1 {
		minTokenLength = 1
	}
	return &Tokenizer{stopWords: set, minTokenLength: minTokenLength}
}

// Tokens returns every kept token of text in order
func (t *Tokenizer) Tokens(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	tokens := words[:0]
	for _, w := range words {
		if utf8.RuneCountInString(w) < t.minTokenLength {
			continue
		}
		if _, stop := t.stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// Terms returns the distinct kept tokens of text
func (t *Tokenizer) Terms(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, tok := range t.Tokens(text) {
		terms[tok] = struct{}{}
	}
	return terms
}
