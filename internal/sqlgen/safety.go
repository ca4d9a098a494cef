package sqlgen

import (
	"regexp"
	"strings"
)

// Classification is the safety verdict for a candidate SQL statement
type Classification string

const (
	// ClassificationReadOnly marks a statement as safe to execute
	ClassificationReadOnly Classification = "read_only"
	// ClassificationMutating marks a statement that can alter stored data
	ClassificationMutating Classification = "mutating"
	// ClassificationUnknown marks a statement with neither a SELECT nor a
	// denylisted keyword; it is not a valid read query and must be rejected
	ClassificationUnknown Classification = "unknown"
)

// wordPattern finds individual word tokens in a statement
var wordPattern = regexp.MustCompile(`\b\w+\b`)

// mutatingKeywords is the fixed denylist of data-modifying SQL keywords
var mutatingKeywords = map[string]struct{}{
	"ALTER":    {},
	"CREATE":   {},
	"DELETE":   {},
	"DROP":     {},
	"INSERT":   {},
	"MERGE":    {},
	"REPLACE":  {},
	"TRUNCATE": {},
	"UPDATE":   {},
	"UPSERT":   {},
}

// Classify decides whether a SQL statement is read-only from its lexical
// content alone. Tokens are matched on word boundaries after uppercasing,
// so a denylist word inside a string literal or comment still classifies
// the statement as mutating. That is deliberate fail-closed behavior:
// this is a lexical classifier, not a parser.
func Classify(query string) Classification {
	words := wordPattern.FindAllString(strings.ToUpper(query), -1)

	hasSelect := false
	for _, word := range words {
		if _, mutating := mutatingKeywords[word]; mutating {
			return ClassificationMutating
		}
		if word == "SELECT" {
			hasSelect = true
		}
	}

	if hasSelect {
		return ClassificationReadOnly
	}
	return ClassificationUnknown
}
