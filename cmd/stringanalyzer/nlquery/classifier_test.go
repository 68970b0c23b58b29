package nlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Kind
	}{
		{"single token", "madam", DirectSearch},
		{"single token mixed case", "MadAm", DirectSearch},
		{"outer whitespace ignored", "  racecar \n", DirectSearch},
		{"non keyword plural", "palindromes", DirectSearch},
		{"digits", "12321", DirectSearch},
		{"space", "hello world", NaturalLanguageCommand},
		{"tab", "hello\tworld", NaturalLanguageCommand},
		{"keyword", "strings", NaturalLanguageCommand},
		{"keyword upper case", "VOWEL", NaturalLanguageCommand},
		{"keyword palindrom", "palindrom", NaturalLanguageCommand},
		{"sentence", "all single word palindromic strings", NaturalLanguageCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

// A literal search for a keyword cannot be expressed: "word" always reads as a
// command and yields no filters.
func TestClassify_KeywordLiteralIsCommand(t *testing.T) {
	assert.Equal(t, NaturalLanguageCommand, Classify("word"))

	got := Interpret("word")
	assert.Equal(t, NaturalLanguageCommand, got.Kind)
	assert.True(t, got.Filters.IsEmpty())
}

func TestKind_MarshalText(t *testing.T) {
	b, err := DirectSearch.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "direct_search", string(b))
	assert.Equal(t, "natural_language", NaturalLanguageCommand.String())
}
