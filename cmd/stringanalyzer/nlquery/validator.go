package nlquery

import "github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"

// Validate reports whether filters can be handed to the storage layer. The
// only rejected combination is a min_length above max_length; other
// unsatisfiable combinations are accepted.
func Validate(filters types.FilterSet) bool {
	if filters.MinLength != nil && filters.MaxLength != nil {
		return *filters.MinLength <= *filters.MaxLength
	}
	return true
}

// Valid reports whether the interpreted filters pass Validate.
func (i Interpretation) Valid() bool {
	return Validate(i.Filters)
}
