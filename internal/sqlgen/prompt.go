// File path: internal/sqlgen/prompt.go
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/harborcover/commsight/internal/memory"
)

const (
	historyWindow     = 3
	recentAnswerLimit = 600
	olderAnswerLimit  = 300
)

func buildUserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(conversationContext(req.History))
	fmt.Fprintf(&b, "\nUser Question: %s\n", req.Question)
	if req.Feedback != "" {
		fmt.Fprintf(&b, "\nPREVIOUS ERROR: %s\n\nPlease fix the SQL query based on the error above.\n", req.Feedback)
	}
	b.WriteString("\nGenerate a SQL query to answer this question.\n\n")
	b.WriteString(formatInstructions)
	return b.String()
}

// conversationContext renders the last exchanges for follow-up resolution.
// The most recent answer keeps more text than older ones.
func conversationContext(history []memory.Turn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var b strings.Builder
	b.WriteString("\n\n## IMPORTANT: CONVERSATION HISTORY\n")
	b.WriteString("Use this history to understand follow-up questions. If the user refers to something from a previous answer (names, dates, amounts), USE that information.\n\n")
	for i, turn := range history {
		fmt.Fprintf(&b, "### Exchange %d:\n", i+1)
		fmt.Fprintf(&b, "**User asked:** %s\n", turn.Question)
		limit := olderAnswerLimit
		if i == len(history)-1 {
			limit = recentAnswerLimit
		}
		answer := turn.Answer
		if len(answer) > limit {
			answer = answer[:limit] + "..."
		}
		fmt.Fprintf(&b, "**Answer:** %s\n\n", answer)
	}
	b.WriteString("---\n")
	b.WriteString("**FOLLOW-UP DETECTION:** If the current question references 'they', 'them', 'that', 'who', 'what was', etc., look in the previous answers for the relevant information.\n")
	return b.String()
}

const formatInstructions = `Respond with a single JSON object and nothing else, using exactly these fields:

{
  "needs_clarification": <boolean> Set to true when the question is too vague to determine what data to query. Examples REQUIRING clarification: "show me the data", "give me data", "show me stuff", "get info", "what about them?". Examples NOT needing clarification: "what's going on?" (all communications), "show me emails" (emails table), "recent calls" (calls table), "account status" (UNION ALL communications), "recent activity" (recent communications with LIMIT 20).
  "clarification_question": <string> If needs_clarification is true, provide a SPECIFIC, actionable question with options. Example: "What information would you like to see? Recent communications (emails/calls/texts), company details, quotes, or something else?" Keep it conversational and provide clear choices.
  "reasoning": <string> Detailed reasoning explaining: 1) why these specific tables were chosen (including why UNION ALL was used if combining tables), 2) why these specific columns were selected, 3) why each WHERE clause filter was included, 4) why this specific JOIN strategy was used (if applicable), 5) why certain rows are being excluded. Be explicit about every decision made in the query.
  "sql": <string> The generated SQL query. Leave empty if needs_clarification is true. For account overview/status questions, use UNION ALL to combine emails, calls, and SMS.
  "explanation": <string> What the query does in plain English. For multi-table queries, explain that you're combining data from multiple sources for a comprehensive view.
}`
