// Package nlquery turns free-text listing queries into filter sets.
//
// A query is first classified: a single token that is not one of the command
// keywords is taken as the literal value to search for, everything else is
// handed to an ordered table of pattern rules that accumulate filters. The
// resulting set is checked for the one contradiction the storage layer cannot
// answer (min_length above max_length).
package nlquery

import (
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
)

// Kind is the classification of a raw query.
type Kind int

const (
	NaturalLanguageCommand Kind = iota
	DirectSearch
)

func (k Kind) String() string {
	switch k {
	case DirectSearch:
		return "direct_search"
	default:
		return "natural_language"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// commandKeywords are single tokens that read as commands even without a space.
var commandKeywords = []string{
	"all", "string", "strings", "contain", "with", "has", "longer", "shorter",
	"word", "words", "character", "characters", "palindrom", "vowel", "letter",
}

// Classify decides whether query is a literal search value or a command to
// decompose. A single token outside commandKeywords is a direct search; any
// query with interior whitespace, or equal to a keyword, is a command.
func Classify(query string) Kind {
	trimmed := strings.TrimSpace(query)
	if strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
		return NaturalLanguageCommand
	}
	if slices.Contains(commandKeywords, fold(trimmed)) {
		return NaturalLanguageCommand
	}
	return DirectSearch
}

// fold case-folds s. A Caser keeps state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
