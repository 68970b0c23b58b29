package nlquery

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
	"github.com/SanteonNL/stringanalyzer/util"
)

// Rule is one pattern of a group. Apply receives the submatches of Pattern and
// writes into the filter set; it returns false when the capture is unusable,
// in which case the next rule of the group is tried.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Apply   func(m []string, f *types.FilterSet) bool
}

// RuleGroup is an ordered list of rules of which at most one fires. When, if
// set, gates the whole group on the filters accumulated so far.
type RuleGroup struct {
	Name  string
	When  func(f types.FilterSet) bool
	Rules []Rule
}

// DefaultRules returns the rule table in evaluation order. Groups are
// independent: a group firing never stops a later group.
func DefaultRules() []RuleGroup {
	return []RuleGroup{
		{
			Name: "word_count",
			Rules: []Rule{
				{"single_word", regexp.MustCompile(`\b(?:single|one)\s+word\b`), setWordCount(1)},
				{"two_words", regexp.MustCompile(`\b(?:two\s+words|double\s+word)\b`), setWordCount(2)},
				{"three_words", regexp.MustCompile(`\b(?:three\s+words|triple\s+word)\b`), setWordCount(3)},
				{"n_words", regexp.MustCompile(`\b(\d+)\s+words?\b`), captureInt(func(n int, f *types.FilterSet) {
					f.WordCount = util.IntPtr(n)
				})},
			},
		},
		{
			Name: "palindrome",
			Rules: []Rule{
				{"palindrom", regexp.MustCompile(`\bpalindrom`), setPalindrome},
				{"forwards_backwards", regexp.MustCompile(`\bsame\s+forwards?\s+and\s+backwards?\b`), setPalindrome},
				{"both_ways", regexp.MustCompile(`\breads?\s+(?:the\s+)?same\s+both\s+ways\b`), setPalindrome},
			},
		},
		{
			Name: "longer_than",
			Rules: []Rule{
				{"longer_than", regexp.MustCompile(`\blonger\s+than\s+(\d+)\s+characters?\b`), captureInt(func(n int, f *types.FilterSet) {
					f.MinLength = util.IntPtr(n + 1)
				})},
			},
		},
		{
			Name: "shorter_than",
			Rules: []Rule{
				{"shorter_than", regexp.MustCompile(`\bshorter\s+than\s+(\d+)\s+characters?\b`), captureInt(func(n int, f *types.FilterSet) {
					f.MaxLength = util.IntPtr(n - 1)
				})},
			},
		},
		{
			Name: "exact_length",
			When: func(f types.FilterSet) bool { return f.MinLength == nil && f.MaxLength == nil },
			Rules: []Rule{
				{"n_characters", regexp.MustCompile(`\b(\d+)\s+characters?\b`), captureInt(func(n int, f *types.FilterSet) {
					f.MinLength = util.IntPtr(n)
					f.MaxLength = util.IntPtr(n)
				})},
			},
		},
		{
			Name: "contains_character",
			Rules: []Rule{
				{"contains", regexp.MustCompile(`\bcontain(?:s|ing)?\s+(?:the\s+)?(?:letter\s+)?([a-z])\b`), setCharacter},
				{"with", regexp.MustCompile(`\bwith\s+(?:the\s+)?(?:letter\s+)?([a-z])\b`), setCharacter},
				{"has", regexp.MustCompile(`\bhas\s+(?:the\s+)?(?:letter\s+)?([a-z])\b`), setCharacter},
				{"including", regexp.MustCompile(`\bincluding\s+(?:the\s+)?(?:letter\s+)?([a-z])\b`), setCharacter},
			},
		},
		{
			// TODO: replace with an any-of-vowels filter once FilterSet can express one.
			Name: "vowel",
			Rules: []Rule{
				{"vowel", regexp.MustCompile(`\b(?:first\s+)?vowel\b`), func(_ []string, f *types.FilterSet) bool {
					f.ContainsCharacter = util.StringPtr("a")
					return true
				}},
			},
		},
		{
			Name: "contains_text",
			Rules: []Rule{
				{"quoted", regexp.MustCompile(`\b(?:containing|with|has)\s+(?:the\s+)?(?:text|string)\s+["']([^"']+)["']`), setText},
				{"bare", regexp.MustCompile(`\b(?:containing|with|has)\s+(?:the\s+)?(?:text|string)\s+([^\s"']+)`), setText},
			},
		},
	}
}

func setWordCount(n int) func([]string, *types.FilterSet) bool {
	return func(_ []string, f *types.FilterSet) bool {
		f.WordCount = util.IntPtr(n)
		return true
	}
}

func setPalindrome(_ []string, f *types.FilterSet) bool {
	f.IsPalindrome = util.BoolPtr(true)
	return true
}

func setCharacter(m []string, f *types.FilterSet) bool {
	f.ContainsCharacter = util.StringPtr(m[1])
	return true
}

func setText(m []string, f *types.FilterSet) bool {
	phrase := strings.TrimSpace(m[1])
	if phrase == "" {
		return false
	}
	f.ContainsText = util.StringPtr(phrase)
	return true
}

// captureInt parses the first submatch as a digit run. Values that overflow,
// or would overflow once adjusted by one, are rejected rather than wrapped.
func captureInt(set func(n int, f *types.FilterSet)) func([]string, *types.FilterSet) bool {
	return func(m []string, f *types.FilterSet) bool {
		n, err := strconv.Atoi(m[1])
		if err != nil || n >= math.MaxInt {
			return false
		}
		set(n, f)
		return true
	}
}
