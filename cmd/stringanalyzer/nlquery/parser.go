package nlquery

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
	"github.com/SanteonNL/stringanalyzer/util"
)

// Parser applies a fixed rule table to queries. It holds no mutable state and
// is safe for concurrent use.
type Parser struct {
	groups []RuleGroup
	log    zerolog.Logger
}

// Interpretation is the outcome of parsing one query.
type Interpretation struct {
	Original string          `json:"original"`
	Kind     Kind            `json:"kind"`
	Filters  types.FilterSet `json:"parsed_filters"`
}

// NewParser creates a parser over the default rule table.
func NewParser(log zerolog.Logger) *Parser {
	return NewParserWithRules(DefaultRules(), log)
}

// NewParserWithRules creates a parser over groups, evaluated in order.
func NewParserWithRules(groups []RuleGroup, log zerolog.Logger) *Parser {
	return &Parser{
		groups: groups,
		log:    log.With().Str("component", "nlquery").Logger(),
	}
}

var defaultParser = NewParser(zerolog.Nop())

// Extract runs the default rule table over query.
func Extract(query string) types.FilterSet {
	return defaultParser.Extract(query)
}

// Interpret classifies and parses query with the default rule table.
func Interpret(query string) Interpretation {
	return defaultParser.Interpret(query)
}

// Extract runs every rule group over the case-folded query. Within a group
// the first rule that applies wins; filters from different groups accumulate.
// A query that matches nothing yields an empty set.
func (p *Parser) Extract(query string) types.FilterSet {
	text := fold(strings.TrimSpace(query))
	var filters types.FilterSet

	for _, group := range p.groups {
		if group.When != nil && !group.When(filters) {
			continue
		}
		for _, rule := range group.Rules {
			m := rule.Pattern.FindStringSubmatch(text)
			if m == nil || !rule.Apply(m, &filters) {
				continue
			}
			p.log.Debug().
				Str("group", group.Name).
				Str("rule", rule.Name).
				Str("match", m[0]).
				Msg("Rule matched")
			break
		}
	}

	return filters
}

// Interpret classifies query and builds its filter set. A direct search
// becomes a contains_text filter on the trimmed query as typed.
func (p *Parser) Interpret(query string) Interpretation {
	trimmed := strings.TrimSpace(query)
	result := Interpretation{Original: query, Kind: Classify(trimmed)}

	if result.Kind == DirectSearch {
		result.Filters = types.FilterSet{ContainsText: util.StringPtr(trimmed)}
	} else {
		result.Filters = p.Extract(trimmed)
	}

	p.log.Debug().
		Str("query", query).
		Stringer("kind", result.Kind).
		Interface("filters", result.Filters.Applied()).
		Msg("Interpreted query")

	return result
}
