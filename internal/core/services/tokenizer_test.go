package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Tokens(t *testing.T) {
	tok := NewTokenizer(DefaultStopWords, 2)

	assert.Equal(t,
		[]string{"submission", "deadline", "ga5"},
		tok.Tokens("What is the submission deadline for GA5?"),
	)
	assert.Equal(t, []string{"docker", "vs", "podman"}, tok.Tokens("Docker vs. Podman: a (b)"), "short words dropped")
	assert.Empty(t, tok.Tokens("   "))
}

func TestTokenizer_Unicode(t *testing.T) {
	tok := NewTokenizer(nil, 1)
	assert.Equal(t, []string{"café", "naïve", "42"}, tok.Tokens("Café, naïve 42"))
}

func TestTokenizer_Terms(t *testing.T) {
	tok := NewTokenizer(DefaultStopWords, 2)
	terms := tok.Terms("docker docker podman")
	assert.Len(t, terms, 2)
	assert.Contains(t, terms, "docker")
	assert.Contains(t, terms, "podman")
}

func TestNewTokenizer_MinLengthFloor(t *testing.T) {
	tok := NewTokenizer(nil, 0)
	assert.Equal(t, []string{"a", "b"}, tok.Tokens("a b"))
}
