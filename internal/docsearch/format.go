// File path: internal/docsearch/format.go
package docsearch

import (
	"fmt"
	"strconv"
	"strings"
)

const analystPrompt = `You are a document analyst for Harper Insurance. You have access to ALL document summaries for this company.

## YOUR TASK:
Search through the document summaries below and find the answer to the user's question.

## DOCUMENTS:
{documents}

## INSTRUCTIONS:
1. Read through ALL the document summaries above
2. Find the specific information the user is asking about
3. Quote the exact values from the summaries (premiums, dates, coverage types, etc.)
4. Cite which document contains the information

## RESPONSE FORMAT:
- Start with the direct answer
- Quote the specific text from the document
- Reference the document filename

## EXAMPLE:
User: "What is the premium?"
Response: "According to **NXTKCJ99LW-00-GL-policy-0000.pdf**, the premium is **$1,036.00**. The document states: 'Premium: $1,036.00'"

## IMPORTANT:
- The answer IS in the documents - search carefully
- If you truly cannot find the answer, say which document might contain it`

const noDocumentsMessage = "No documents found for this company."

// companyDoc is one stored summary pulled back for LLM context.
type companyDoc struct {
	DocumentID  int64
	Filename    string
	ContentType string
	Summary     string
	Type        string
}

func (d companyDoc) idLabel() string {
	if d.DocumentID > 0 {
		return strconv.FormatInt(d.DocumentID, 10)
	}
	return "N/A"
}

// formatCompanyDocuments renders every stored summary into the block the
// analyst prompt reads. The full summaries are included; with at most a
// few dozen documents per company they fit comfortably in context.
func formatCompanyDocuments(docs []companyDoc) string {
	if len(docs) == 0 {
		return noDocumentsMessage
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**All Documents for this Company (%d total):**\n\n", len(docs))
	for i, doc := range docs {
		fmt.Fprintf(&b, "**Document %d: %s**\n", i+1, doc.Filename)
		fmt.Fprintf(&b, "- Type: %s\n", doc.ContentType)
		fmt.Fprintf(&b, "- Document ID: %s\n", doc.idLabel())
		if doc.Summary != "" {
			fmt.Fprintf(&b, "\n**Summary:**\n%s\n", doc.Summary)
		}
		b.WriteString("\n" + strings.Repeat("-", 60) + "\n\n")
	}
	return b.String()
}

func metaString(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if raw, ok := m[key]; ok {
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// metaInt64 reads a numeric metadata value. JSON decoding hands numbers
// back as float64, but stored metadata may round-trip other shapes.
func metaInt64(m map[string]any, key string) int64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func metaInt(m map[string]any, key string) int {
	return int(metaInt64(m, key))
}
