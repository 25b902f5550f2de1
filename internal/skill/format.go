// File path: internal/skill/format.go
package skill

import (
	"fmt"
	"sort"
	"strings"
)

const summaryPreviewLimit = 300

// Fallback renders rows into a deterministic answer for when language-model
// response generation is disabled or fails. columns preserves the result-set
// column order; it may be nil.
func Fallback(s Skill, rows []map[string]any, columns []string) string {
	switch s {
	case EmailCommunications:
		return formatEmails(rows)
	case PhoneCalls:
		return formatPhoneCalls(rows)
	case PhoneMessages:
		return formatPhoneMessages(rows)
	case CompaniesData:
		return formatCompany(rows)
	case Documents:
		return formatDocuments(rows)
	default:
		return formatGeneral(rows, columns)
	}
}

func formatEmails(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No email communications found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d email(s).\n\n", len(rows))
	for i, row := range rows {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "**Email %d:**\n", i+1)
		fmt.Fprintf(&b, "From: %s\n", fieldOrNA(row, "sender_email"))
		if _, ok := row["subject"]; ok {
			fmt.Fprintf(&b, "Subject: %s\n", fieldOrNA(row, "subject"))
		}
		if _, ok := row["sent_date"]; ok {
			fmt.Fprintf(&b, "Date: %s\n", fieldOrNA(row, "sent_date"))
		}
		if _, ok := row["category"]; ok {
			fmt.Fprintf(&b, "Category: %s\n", fieldOrNA(row, "category"))
		}
		b.WriteString("\n")
	}
	if len(rows) > 5 {
		fmt.Fprintf(&b, "...and %d more emails.\n", len(rows)-5)
	}
	return b.String()
}

func formatPhoneCalls(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No phone calls found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d phone call(s).\n\n", len(rows))
	for i, row := range rows {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "**Call %d:**\n", i+1)
		if _, ok := row["direction"]; ok {
			fmt.Fprintf(&b, "Direction: %s\n", fieldOrNA(row, "direction"))
		}
		if _, ok := row["type"]; ok {
			fmt.Fprintf(&b, "Type: %s\n", fieldOrNA(row, "type"))
		}
		if _, ok := row["call_created_at"]; ok {
			fmt.Fprintf(&b, "Date: %s\n", fieldOrNA(row, "call_created_at"))
		}
		if v, ok := row["recording_summary"]; ok && v != nil {
			summary := fmt.Sprintf("%v", v)
			if len(summary) > summaryPreviewLimit {
				summary = summary[:summaryPreviewLimit] + "..."
			}
			fmt.Fprintf(&b, "Summary: %s\n", summary)
		}
		b.WriteString("\n")
	}
	if len(rows) > 5 {
		fmt.Fprintf(&b, "...and %d more calls.\n", len(rows)-5)
	}
	return b.String()
}

func formatPhoneMessages(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No text messages found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d text message(s).\n\n", len(rows))
	for i, row := range rows {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "**Message %d:**\n", i+1)
		if v, ok := row["direction"]; ok {
			direction := "From Harper"
			if fmt.Sprintf("%v", v) == "incoming" {
				direction = "From client"
			}
			fmt.Fprintf(&b, "Direction: %s\n", direction)
		}
		if _, ok := row["message_created_at"]; ok {
			fmt.Fprintf(&b, "Date: %s\n", fieldOrNA(row, "message_created_at"))
		}
		if _, ok := row["message_body"]; ok {
			fmt.Fprintf(&b, "Content: %s\n", fieldOrNA(row, "message_body"))
		}
		b.WriteString("\n")
	}
	if len(rows) > 10 {
		fmt.Fprintf(&b, "...and %d more messages.\n", len(rows)-10)
	}
	return b.String()
}

func formatCompany(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No company information found."
	}
	row := rows[0]
	name := "Company"
	if v, ok := row["company_name"]; ok && v != nil {
		name = fmt.Sprintf("%v", v)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", name)
	if _, ok := row["company_primary_email"]; ok {
		fmt.Fprintf(&b, "Email: %s\n", fieldOrNA(row, "company_primary_email"))
	}
	if _, ok := row["company_primary_phone"]; ok {
		fmt.Fprintf(&b, "Phone: %s\n", fieldOrNA(row, "company_primary_phone"))
	}
	if _, ok := row["company_industry"]; ok {
		fmt.Fprintf(&b, "Industry: %s\n", fieldOrNA(row, "company_industry"))
	}
	_, hasFT := row["company_full_time_employees"]
	_, hasPT := row["company_part_time_employees"]
	if hasFT || hasPT {
		ft := intField(row, "company_full_time_employees")
		pt := intField(row, "company_part_time_employees")
		fmt.Fprintf(&b, "Employees: %d (%d FT, %d PT)\n", ft+pt, ft, pt)
	}
	return b.String()
}

func formatDocuments(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No documents found for this company."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d document(s):\n\n", len(rows))
	for i, row := range rows {
		if i == 5 {
			break
		}
		filename := "Unknown"
		if v, ok := row["filename"]; ok && v != nil {
			filename = fmt.Sprintf("%v", v)
		}
		contentType := "Unknown"
		if v, ok := row["content_type"]; ok && v != nil {
			contentType = fmt.Sprintf("%v", v)
		}
		fmt.Fprintf(&b, "**%d. %s** (%s)\n", i+1, filename, contentType)
		fmt.Fprintf(&b, "   - Content: %s | Summary: %s\n",
			yesNo(boolField(row, "has_content")), yesNo(boolField(row, "has_summary")))
	}
	if len(rows) > 5 {
		fmt.Fprintf(&b, "...and %d more documents.\n", len(rows)-5)
	}
	return b.String()
}

func formatGeneral(rows []map[string]any, columns []string) string {
	if len(rows) == 0 {
		return "Query completed but returned no results."
	}
	if len(columns) == 0 {
		for col := range rows[0] {
			columns = append(columns, col)
		}
		sort.Strings(columns)
	}
	out := fmt.Sprintf("Found %d result(s)", len(rows))
	if len(columns) > 0 {
		preview := columns
		if len(preview) > 5 {
			preview = preview[:5]
		}
		out += " with columns: " + strings.Join(preview, ", ")
		if len(columns) > 5 {
			out += fmt.Sprintf(" and %d more", len(columns)-5)
		}
	}
	return out
}

func fieldOrNA(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v", v)
}

func intField(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		var n int64
		fmt.Sscanf(v, "%d", &n)
		return n
	default:
		return 0
	}
}

func boolField(row map[string]any, key string) bool {
	switch v := row[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || v == "t" || v == "yes"
	default:
		return false
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
