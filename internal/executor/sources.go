// File path: internal/executor/sources.go

package executor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var tablePattern = regexp.MustCompile(`(?i)(?:FROM|JOIN)\s+([a-zA-Z_][a-zA-Z0-9_]*\.[a-zA-Z_][a-zA-Z0-9_]*)`)

var friendlyTableNames = map[string]string{
	"public.companies":                    "Companies Master Data",
	"communications.emails_silver":        "Email Communications",
	"communications.phone_call_silver":    "Phone Calls",
	"communications.phone_message_silver": "SMS Messages",
}

// DataSources lists the schema-qualified tables a query reads from, mapped to
// display names where one is known. Results are deduplicated and sorted.
func DataSources(sqlText string) []string {
	matches := tablePattern.FindAllStringSubmatch(sqlText, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		table := m[1]
		if _, ok := seen[table]; ok {
			continue
		}
		seen[table] = struct{}{}
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for i, table := range tables {
		if friendly, ok := friendlyTableNames[table]; ok {
			tables[i] = friendly
		}
	}
	return tables
}

// MetadataSummary renders the tables, column preview, and row count block
// appended to successful results. Empty result sets produce no summary.
func MetadataSummary(rows []map[string]any, columns []string, sources []string) string {
	if len(rows) == 0 {
		return ""
	}
	if len(columns) == 0 {
		columns = make([]string, 0, len(rows[0]))
		for name := range rows[0] {
			columns = append(columns, name)
		}
		sort.Strings(columns)
	}
	preview := columns
	if len(preview) > 5 {
		preview = preview[:5]
	}
	var b strings.Builder
	b.WriteString("**Query Metadata:**\n")
	fmt.Fprintf(&b, "• Tables: %s\n", strings.Join(sources, ", "))
	fmt.Fprintf(&b, "• Columns returned: %d (%s", len(columns), strings.Join(preview, ", "))
	if len(columns) > 5 {
		fmt.Fprintf(&b, " + %d more", len(columns)-5)
	}
	b.WriteString(")\n")
	fmt.Fprintf(&b, "• Rows: %d", len(rows))
	return b.String()
}
