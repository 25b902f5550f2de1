// File path: internal/validate/validator.go

// Package validate screens generated SQL before it can reach the database.
// Checks are pure string analysis: no network, no database, no language-model
// calls. A statement is rejected on the first failed check.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Verdict is the outcome of validating one SQL statement.
type Verdict struct {
	Valid      bool
	Violations []string
}

// First returns the first violation, or "" when the verdict is valid.
func (v Verdict) First() string {
	if len(v.Violations) == 0 {
		return ""
	}
	return v.Violations[0]
}

func reject(reason string) Verdict {
	return Verdict{Valid: false, Violations: []string{reason}}
}

// Mutation keywords, checked in this order so the reported keyword is stable.
var dangerousKeywords = []string{
	"drop", "truncate", "delete", "insert", "update",
	"alter", "create", "grant", "revoke", "exec", "execute",
}

var dangerousPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(dangerousKeywords))
	for _, kw := range dangerousKeywords {
		m[kw] = regexp.MustCompile(`(?i)\b` + kw + `\b`)
	}
	return m
}()

// Communication tables whose rows belong to a single tenant.
var tenantTables = []string{
	"emails_silver",
	"phone_call_silver",
	"phone_message_silver",
}

var (
	stringLiteralPattern  = regexp.MustCompile(`'(?:[^']|'')*'`)
	qualifiedTablePattern = regexp.MustCompile(`(?i)(?:from|join)\s+([a-z_][a-z0-9_]*\.[a-z_][a-z0-9_]*)`)
)

// Query validates a candidate SQL statement for tenant companyID. The checks
// run in order and the first failure short-circuits:
//
//  1. read-only: statement must start with SELECT or WITH and contain no
//     mutation keyword anywhere (word-boundary matched, string literals
//     excluded)
//  2. tenant isolation: statements touching communication tables must
//     reference matched_company_id or join the companies table
//  3. allow-list: every schema-qualified table must be in allowedTables
//     (empty list means no restriction)
//  4. shape: a single statement, and no line comment that cuts off a
//     matched_company_id filter
//
// Query never panics on malformed input.
func Query(sqlText string, companyID int64, allowedTables []string) Verdict {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return reject("Empty or whitespace-only SQL query")
	}

	head := statementHead(trimmed)
	if head == "" {
		return reject("Failed to parse SQL query")
	}
	if head != "select" && head != "with" {
		return reject(fmt.Sprintf("Only SELECT queries are allowed. Found: %s", strings.ToUpper(head)))
	}

	scanText := stringLiteralPattern.ReplaceAllString(trimmed, "''")
	for _, kw := range dangerousKeywords {
		if dangerousPatterns[kw].MatchString(scanText) {
			return reject(fmt.Sprintf("Dangerous SQL keyword detected: %s", strings.ToUpper(kw)))
		}
	}

	if companyID <= 0 {
		return reject("Tenant company id is required")
	}
	lower := strings.ToLower(trimmed)
	if referencesTenantTable(lower) {
		hasFilter := strings.Contains(lower, "matched_company_id")
		hasCompanyJoin := strings.Contains(lower, "companies")
		if !hasFilter && !hasCompanyJoin {
			return reject("Query must filter by matched_company_id or join with companies table for security")
		}
	}

	if len(allowedTables) > 0 {
		allowed := make(map[string]bool, len(allowedTables))
		for _, t := range allowedTables {
			allowed[strings.ToLower(t)] = true
		}
		for _, match := range qualifiedTablePattern.FindAllStringSubmatch(scanText, -1) {
			table := strings.ToLower(match[1])
			if !allowed[table] {
				return reject(fmt.Sprintf("Table not allowed for this skill: %s", table))
			}
		}
	}

	semicolons := strings.Count(trimmed, ";")
	if semicolons > 1 || (semicolons == 1 && !strings.HasSuffix(trimmed, ";")) {
		return reject("Multiple SQL statements not allowed")
	}

	for _, line := range strings.Split(trimmed, "\n") {
		commentPos := strings.Index(line, "--")
		if commentPos < 0 {
			continue
		}
		filterPos := strings.Index(strings.ToLower(line), "matched_company_id")
		if filterPos > commentPos {
			return reject("Potential comment attack on matched_company_id filter")
		}
	}

	return Verdict{Valid: true}
}

func referencesTenantTable(lowerSQL string) bool {
	for _, table := range tenantTables {
		if strings.Contains(lowerSQL, table) {
			return true
		}
	}
	return false
}

// statementHead returns the first keyword of the statement in lower case,
// skipping leading whitespace, comments, and opening parentheses. Returns ""
// when no keyword can be found.
func statementHead(sqlText string) string {
	rest := sqlText
	for {
		rest = strings.TrimLeft(rest, " \t\r\n(")
		switch {
		case strings.HasPrefix(rest, "--"):
			nl := strings.IndexByte(rest, '\n')
			if nl < 0 {
				return ""
			}
			rest = rest[nl+1:]
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest, "*/")
			if end < 0 {
				return ""
			}
			rest = rest[end+2:]
		default:
			end := 0
			for end < len(rest) {
				c := rest[end]
				if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
					end++
					continue
				}
				break
			}
			if end == 0 {
				return ""
			}
			return strings.ToLower(rest[:end])
		}
	}
}
