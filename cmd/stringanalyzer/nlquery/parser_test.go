package nlquery

import (
	"regexp"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
	"github.com/SanteonNL/stringanalyzer/util"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		query string
		want  types.FilterSet
	}{
		{"single word palindromes", types.FilterSet{WordCount: util.IntPtr(1), IsPalindrome: util.BoolPtr(true)}},
		{"one word strings", types.FilterSet{WordCount: util.IntPtr(1)}},
		{"two words", types.FilterSet{WordCount: util.IntPtr(2)}},
		{"double word strings", types.FilterSet{WordCount: util.IntPtr(2)}},
		{"three words please", types.FilterSet{WordCount: util.IntPtr(3)}},
		{"triple word", types.FilterSet{WordCount: util.IntPtr(3)}},
		{"strings of 5 words", types.FilterSet{WordCount: util.IntPtr(5)}},
		{"strings of 1 word", types.FilterSet{WordCount: util.IntPtr(1)}},
		{"strings longer than 5 characters", types.FilterSet{MinLength: util.IntPtr(6)}},
		{"strings shorter than 10 characters", types.FilterSet{MaxLength: util.IntPtr(9)}},
		{"longer than 2 characters and shorter than 8 characters", types.FilterSet{MinLength: util.IntPtr(3), MaxLength: util.IntPtr(7)}},
		{"longer than 1 character", types.FilterSet{MinLength: util.IntPtr(2)}},
		{"7 characters", types.FilterSet{MinLength: util.IntPtr(7), MaxLength: util.IntPtr(7)}},
		{"strings with exactly 1 character", types.FilterSet{MinLength: util.IntPtr(1), MaxLength: util.IntPtr(1)}},
		{"contains the letter x", types.FilterSet{ContainsCharacter: util.StringPtr("x")}},
		{"strings containing z", types.FilterSet{ContainsCharacter: util.StringPtr("z")}},
		{"strings contain letter q", types.FilterSet{ContainsCharacter: util.StringPtr("q")}},
		{"strings with the letter k", types.FilterSet{ContainsCharacter: util.StringPtr("k")}},
		{"anything that has the letter b", types.FilterSet{ContainsCharacter: util.StringPtr("b")}},
		{"words including the letter m", types.FilterSet{ContainsCharacter: util.StringPtr("m")}},
		{"Contains The Letter X", types.FilterSet{ContainsCharacter: util.StringPtr("x")}},
		{"strings containing the first vowel", types.FilterSet{ContainsCharacter: util.StringPtr("a")}},
		{"contains the letter z and a vowel", types.FilterSet{ContainsCharacter: util.StringPtr("a")}},
		{"reads the same forwards and backwards", types.FilterSet{IsPalindrome: util.BoolPtr(true)}},
		{"text that reads same both ways", types.FilterSet{IsPalindrome: util.BoolPtr(true)}},
		{"palindromic strings", types.FilterSet{IsPalindrome: util.BoolPtr(true)}},
		{`strings containing the text "Hello World"`, types.FilterSet{ContainsText: util.StringPtr("hello world")}},
		{"strings with the string 'abc'", types.FilterSet{ContainsText: util.StringPtr("abc")}},
		{"entries that have text has text foo", types.FilterSet{ContainsText: util.StringPtr("foo")}},
		{"strings containing the text hello world", types.FilterSet{ContainsText: util.StringPtr("hello")}},
		{
			"palindromes longer than 3 characters containing z",
			types.FilterSet{IsPalindrome: util.BoolPtr(true), MinLength: util.IntPtr(4), ContainsCharacter: util.StringPtr("z")},
		},
		{
			"single word palindromic strings containing the text abc",
			types.FilterSet{WordCount: util.IntPtr(1), IsPalindrome: util.BoolPtr(true), ContainsText: util.StringPtr("abc")},
		},
		{"show me everything", types.FilterSet{}},
		{"", types.FilterSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.query))
		})
	}
}

func TestExtract_WordCountFirstMatchWins(t *testing.T) {
	// "single word" wins over the generic "<N> words" pattern.
	got := Extract("single word or 4 words")
	require.NotNil(t, got.WordCount)
	assert.Equal(t, 1, *got.WordCount)
}

func TestExtract_ExactLengthSkippedAfterComparative(t *testing.T) {
	got := Extract("longer than 4 characters, 9 characters")
	assert.Equal(t, types.FilterSet{MinLength: util.IntPtr(5)}, got)
}

func TestExtract_OverflowingNumberIsIgnored(t *testing.T) {
	assert.True(t, Extract("longer than 99999999999999999999999 characters").IsEmpty())
	assert.True(t, Extract("99999999999999999999999 words").IsEmpty())
}

func TestExtract_ShorterThanZero(t *testing.T) {
	got := Extract("shorter than 0 characters")
	require.NotNil(t, got.MaxLength)
	assert.Equal(t, -1, *got.MaxLength)
}

func TestExtract_Idempotent(t *testing.T) {
	query := "palindromes longer than 3 characters containing z"
	first := Extract(query)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, first, Extract(query))
		}()
	}
	wg.Wait()
}

func TestInterpret(t *testing.T) {
	t.Run("direct search", func(t *testing.T) {
		got := Interpret("madam")
		assert.Equal(t, DirectSearch, got.Kind)
		assert.Equal(t, types.FilterSet{ContainsText: util.StringPtr("madam")}, got.Filters)
		assert.True(t, got.Valid())
	})

	t.Run("direct search keeps case", func(t *testing.T) {
		got := Interpret(" Madam ")
		assert.Equal(t, " Madam ", got.Original)
		assert.Equal(t, types.FilterSet{ContainsText: util.StringPtr("Madam")}, got.Filters)
	})

	t.Run("command", func(t *testing.T) {
		got := Interpret("strings longer than 5 characters")
		assert.Equal(t, NaturalLanguageCommand, got.Kind)
		assert.Equal(t, types.FilterSet{MinLength: util.IntPtr(6)}, got.Filters)
	})

	t.Run("conflicting command", func(t *testing.T) {
		got := Interpret("longer than 10 characters and shorter than 5 characters")
		assert.False(t, got.Valid())
	})
}

func TestParser_CustomRules(t *testing.T) {
	groups := []RuleGroup{{
		Name: "even",
		Rules: []Rule{{
			Name:    "even",
			Pattern: regexp.MustCompile(`\beven\b`),
			Apply: func(_ []string, f *types.FilterSet) bool {
				f.WordCount = util.IntPtr(2)
				return true
			},
		}},
	}}
	p := NewParserWithRules(groups, zerolog.Nop())

	assert.Equal(t, types.FilterSet{WordCount: util.IntPtr(2)}, p.Extract("even strings"))
	assert.True(t, p.Extract("palindromes").IsEmpty())
}
