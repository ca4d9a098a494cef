package sqlgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Paging-clause patterns for MySQL-flavored statements. The model is
// prompted for SQL Server but frequently falls back to LIMIT syntax.
var (
	limitPattern  = regexp.MustCompile(`(?i)LIMIT\s+(\d+)(?:\s*,\s*(\d+))?\s*;?`)
	selectPattern = regexp.MustCompile(`(?i)\bSELECT\b`)
)

// NormalizeDialect rewrites MySQL-style paging syntax into its SQL Server
// equivalent. Statements without a LIMIT clause are returned unchanged,
// byte for byte. Only the first SELECT keyword is rewritten so that
// subqueries are left alone.
//
// LIMIT n        -> SELECT TOP n ...
// LIMIT o, n     -> ROW_NUMBER() window filtered to rows [o+1, o+n]
func NormalizeDialect(query string) string {
	if !strings.Contains(strings.ToUpper(query), "LIMIT") {
		return query
	}

	match := limitPattern.FindStringSubmatch(query)
	if match == nil {
		// LIMIT appeared as a bare word with no parsable clause; treat
		// as no match and pass the statement through unchanged.
		return query
	}

	if match[2] != "" {
		// Offset + count form: LIMIT o, n
		offset, err1 := strconv.Atoi(match[1])
		count, err2 := strconv.Atoi(match[2])
		if err1 != nil || err2 != nil {
			return query
		}
		return rewriteAsWindow(query, offset, count)
	}

	// Bare form: LIMIT n
	count, err := strconv.Atoi(match[1])
	if err != nil {
		return query
	}
	return rewriteAsTop(query, count)
}

// rewriteAsTop turns the first SELECT into SELECT TOP n and strips the
// LIMIT clause
func rewriteAsTop(query string, count int) string {
	rewritten := replaceFirstSelect(query, fmt.Sprintf("SELECT TOP %d", count))
	rewritten = limitPattern.ReplaceAllString(rewritten, "")
	return strings.TrimSpace(rewritten)
}

// rewriteAsWindow wraps the original query, with a synthetic row-number
// column added to its projection, in an outer query filtering the
// inclusive row range [offset+1, offset+count]. The (SELECT NULL)
// ordering is an arbitrary stable tie-break for statements without an
// explicit ORDER BY.
func rewriteAsWindow(query string, offset, count int) string {
	inner := replaceFirstSelect(query, "SELECT ROW_NUMBER() OVER (ORDER BY (SELECT NULL)) AS RowNum,")
	inner = strings.TrimSpace(limitPattern.ReplaceAllString(inner, ""))

	low := offset + 1
	high := offset + count
	return fmt.Sprintf("WITH NumberedResults AS (%s) SELECT * FROM NumberedResults WHERE RowNum BETWEEN %d AND %d;", inner, low, high)
}

// replaceFirstSelect substitutes only the first SELECT keyword,
// case-insensitively
func replaceFirstSelect(query, replacement string) string {
	loc := selectPattern.FindStringIndex(query)
	if loc == nil {
		return query
	}
	return query[:loc[0]] + replacement + query[loc[1]:]
}
