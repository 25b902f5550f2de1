// File path: internal/respond/rows.go
package respond

import (
	"encoding/json"
	"fmt"

	"github.com/harborcover/commsight/internal/skill"
)

const (
	emailBodyLimit        = 3000
	recordingSummaryLimit = 2000
	longFieldLimit        = 200
)

// formatRows renders result rows as indented JSON for the prompt,
// limited to maxRows with a trailing count of what was held back.
// Long fields are trimmed except the ones the guidance depends on:
// body_text keeps 3000 chars on the email skill so pricing survives,
// recording_summary keeps 2000, and classification fields are never
// cut.
func formatRows(rows []map[string]any, s skill.Skill, maxRows int) string {
	if len(rows) == 0 {
		return "No results returned"
	}
	limited := rows
	if len(limited) > maxRows {
		limited = limited[:maxRows]
	}
	display := make([]map[string]any, len(limited))
	for i, row := range limited {
		display[i] = truncateRow(row, s)
	}
	raw, err := json.MarshalIndent(display, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", display))
	}
	out := string(raw)
	if len(rows) > maxRows {
		out += fmt.Sprintf("\n\n... and %d more rows", len(rows)-maxRows)
	}
	return out
}

func truncateRow(row map[string]any, s skill.Skill) map[string]any {
	out := make(map[string]any, len(row))
	for key, value := range row {
		str, isString := value.(string)
		if !isString {
			out[key] = value
			continue
		}
		switch {
		case key == "body_text" && s == skill.EmailCommunications:
			out[key] = clip(str, emailBodyLimit)
		case key == "recording_summary":
			out[key] = clip(str, recordingSummaryLimit)
		case key == "classification_raw" || key == "category" || key == "call_intent":
			out[key] = str
		default:
			out[key] = ellipsize(str, longFieldLimit)
		}
	}
	return out
}

// clip returns at most limit runes with no suffix.
func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// ellipsize trims to limit runes and marks the cut.
func ellipsize(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
