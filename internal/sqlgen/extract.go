package sqlgen

import (
	"regexp"
	"strings"
)

// fencedSQLPattern matches a markdown code block explicitly tagged as SQL.
// The tag match is case-sensitive: untagged blocks and inline code spans
// are never extracted from.
var fencedSQLPattern = regexp.MustCompile("(?s)```sql\n(.*?)\n```")

// ExtractSQL pulls the first fenced SQL block out of a model's free-text
// response. The second return value is false when no such block exists,
// which is a terminal failure for the request; the caller must not try
// to salvage a statement from untagged text.
func ExtractSQL(text string) (string, bool) {
	match := fencedSQLPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}
