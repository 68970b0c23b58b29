package types

import "time"

// StringProperties are the derived properties computed once per stored string.
type StringProperties struct {
	Length                int            `json:"length"`
	IsPalindrome          bool           `json:"is_palindrome"`
	UniqueCharacters      int            `json:"unique_characters"`
	WordCount             int            `json:"word_count"`
	SHA256Hash            string         `json:"sha256_hash"`
	CharacterFrequencyMap map[string]int `json:"character_frequency_map"`
}

// StringRecord is a stored string together with its properties. The ID is the
// content hash of Value.
type StringRecord struct {
	ID         string           `json:"id"`
	Value      string           `json:"value"`
	Properties StringProperties `json:"properties"`
	CreatedAt  time.Time        `json:"created_at"`
}
