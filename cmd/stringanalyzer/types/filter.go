package types

// FilterSet holds the predicates applied to a string listing. A nil field means
// "no constraint" for that property.
type FilterSet struct {
	WordCount         *int    `json:"word_count,omitempty"`         // exact word count
	IsPalindrome      *bool   `json:"is_palindrome,omitempty"`      // palindrome status
	MinLength         *int    `json:"min_length,omitempty"`         // inclusive lower bound on length
	MaxLength         *int    `json:"max_length,omitempty"`         // inclusive upper bound on length
	ContainsCharacter *string `json:"contains_character,omitempty"` // single character, case-insensitive
	ContainsText      *string `json:"contains_text,omitempty"`      // substring, case-insensitive
}

// IsEmpty reports whether no predicate is set.
func (f FilterSet) IsEmpty() bool {
	return f.WordCount == nil &&
		f.IsPalindrome == nil &&
		f.MinLength == nil &&
		f.MaxLength == nil &&
		f.ContainsCharacter == nil &&
		f.ContainsText == nil
}

// Applied returns the set predicates keyed by filter name, the shape the listing
// endpoints echo back to callers.
func (f FilterSet) Applied() map[string]interface{} {
	applied := make(map[string]interface{})
	if f.WordCount != nil {
		applied["word_count"] = *f.WordCount
	}
	if f.IsPalindrome != nil {
		applied["is_palindrome"] = *f.IsPalindrome
	}
	if f.MinLength != nil {
		applied["min_length"] = *f.MinLength
	}
	if f.MaxLength != nil {
		applied["max_length"] = *f.MaxLength
	}
	if f.ContainsCharacter != nil {
		applied["contains_character"] = *f.ContainsCharacter
	}
	if f.ContainsText != nil {
		applied["contains_text"] = *f.ContainsText
	}
	return applied
}

// Page is the skip/limit window of a listing.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)
