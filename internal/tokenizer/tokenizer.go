package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a normalized word with its position in the token stream.
type Token struct {
	Term     string
	Position uint32
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize splits text into lowercase word tokens. Positions are word
// positions starting at 0. There is no stemming and no stopword removal;
// lookups against the index dictionary are exact.
func Tokenize(text string) []Token {
	var tokens []Token
	var pos uint32
	start := -1

	flush := func(end int) {
		tokens = append(tokens, Token{
			Term:     strings.ToLower(text[start:end]),
			Position: pos,
		})
		pos++
		start = -1
	}

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(i)
		}
	}
	if start >= 0 {
		flush(len(text))
	}

	return tokens
}
