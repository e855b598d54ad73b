// Package tokenizer splits a command line into tokens.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize splits line on whitespace. A pair of double quotes groups the
// enclosed text into the current token and the quotes are dropped. An
// unterminated quote takes the rest of the line literally.
// Blank input yields nil.
func Tokenize(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		// started is set once the current token has content or an opening quote,
		// so that "" still yields an empty token.
		started bool
	)

	flush := func() {
		if started {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		started = false
	}

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	flush()

	return tokens
}
