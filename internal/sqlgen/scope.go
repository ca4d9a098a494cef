package sqlgen

import "strings"

// ScopeColumn is the tenant-isolation column every scoped query must
// constrain
const ScopeColumn = "SalesManTerritory"

// CheckScope verifies that an approved statement textually references the
// territory scope column. Embedding the scope list in the generation
// prompt is only a hint the model may ignore, so statements generated
// under a non-empty scope are rejected unless they mention the column.
// An empty scope means "use the model's judgment" and skips the check.
//
// This is a textual check, not row-level enforcement: it catches the
// common failure mode (the model dropping the filter entirely) without
// parsing the statement.
func CheckScope(query string, territories []string) bool {
	if len(territories) == 0 {
		return true
	}
	return strings.Contains(strings.ToLower(query), strings.ToLower(ScopeColumn))
}
