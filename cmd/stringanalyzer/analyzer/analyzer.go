// Package analyzer computes the stored properties of a string.
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
)

// Analyze computes the properties of value as given, without trimming.
func Analyze(value string) types.StringProperties {
	freq := make(map[string]int)
	for _, r := range value {
		freq[string(r)]++
	}

	return types.StringProperties{
		Length:                utf8.RuneCountInString(value),
		IsPalindrome:          IsPalindrome(value),
		UniqueCharacters:      len(freq),
		WordCount:             len(strings.Fields(value)),
		SHA256Hash:            Hash(value),
		CharacterFrequencyMap: freq,
	}
}

// Hash returns the hex encoded SHA-256 digest of value, which is also the
// record identifier.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// IsPalindrome compares the letters and digits of value, case-folded, against
// their reverse. A value with no letters or digits is a palindrome.
func IsPalindrome(value string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
	runes := []rune(cases.Fold().String(cleaned))

	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		if runes[i] != runes[j] {
			return false
		}
	}
	return true
}
