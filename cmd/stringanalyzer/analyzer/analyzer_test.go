package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_Empty(t *testing.T) {
	props := Analyze("")

	assert.Equal(t, 0, props.Length)
	assert.True(t, props.IsPalindrome)
	assert.Equal(t, 0, props.WordCount)
	assert.Equal(t, 0, props.UniqueCharacters)
	assert.Empty(t, props.CharacterFrequencyMap)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", props.SHA256Hash)
}

func TestAnalyze_HelloWorld(t *testing.T) {
	props := Analyze("hello world")

	assert.Equal(t, 11, props.Length)
	assert.False(t, props.IsPalindrome)
	assert.Equal(t, 2, props.WordCount)
	assert.Equal(t, 8, props.UniqueCharacters)
	assert.Equal(t, 3, props.CharacterFrequencyMap["l"])
	assert.Equal(t, 2, props.CharacterFrequencyMap["o"])
	assert.Equal(t, 1, props.CharacterFrequencyMap[" "])
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", props.SHA256Hash)
}

func TestAnalyze_CountsPunctuationAndCase(t *testing.T) {
	props := Analyze("Aa!")

	assert.Equal(t, 3, props.Length)
	assert.True(t, props.IsPalindrome)
	assert.Equal(t, map[string]int{"A": 1, "a": 1, "!": 1}, props.CharacterFrequencyMap)
}

func TestAnalyze_Multibyte(t *testing.T) {
	props := Analyze("été")

	assert.Equal(t, 3, props.Length)
	assert.True(t, props.IsPalindrome)
	assert.Equal(t, 2, props.UniqueCharacters)
}

func TestIsPalindrome(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"A man a plan a canal Panama", true},
		{"madam", true},
		{"Was it a car or a cat I saw?", true},
		{"12321", true},
		{"!!!", true},
		{"hello", false},
		{"ab", false},
		// Accented and non-Latin letters are compared, not dropped.
		{"éa", false},
		{"Ésé", true},
		{"日本日", true},
		{"ä-a", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPalindrome(tt.value))
		})
	}
}

func TestHash_Stable(t *testing.T) {
	assert.Equal(t, Hash("madam"), Hash("madam"))
	assert.NotEqual(t, Hash("madam"), Hash("Madam"))
	assert.Len(t, Hash("madam"), 64)
}
