// File path: internal/skill/skill.go
package skill

import "strings"

// Skill identifies the schema/context bundle a question is answered with.
type Skill string

const (
	General             Skill = "general"
	Documents           Skill = "documents"
	PhoneCalls          Skill = "phone_calls"
	PhoneMessages       Skill = "phone_messages"
	EmailCommunications Skill = "email_communications"
	CompaniesData       Skill = "companies_data"
)

// All lists every skill in detection priority order.
func All() []Skill {
	return []Skill{General, Documents, PhoneCalls, PhoneMessages, EmailCommunications, CompaniesData}
}

func (s Skill) String() string { return string(s) }

// Valid reports whether s is one of the closed skill set.
func (s Skill) Valid() bool {
	switch s {
	case General, Documents, PhoneCalls, PhoneMessages, EmailCommunications, CompaniesData:
		return true
	}
	return false
}

// Overview keywords route account-status questions to the general skill so
// generation can combine all communication tables.
var overviewKeywords = []string{
	"what's going on", "what is going on", "whats going on",
	"account status", "account overview", "overall status",
	"what happened", "activity", "timeline", "history",
	"communications", "all communications", "recent activity",
	"latest activity", "recent communications", "update me",
}

type keywordSet struct {
	skill    Skill
	keywords []string
}

// priorityTable is scanned in order; the first set containing a match wins.
var priorityTable = []keywordSet{
	{Documents, []string{
		"document", "documents", "file", "files",
		"pdf", "png", "jpg", "jpeg", "image", "images",
		"attachment", "attachments", "upload", "uploaded",
		"download", "policy document", "certificate",
		"contract", "contracts", "paperwork",
	}},
	{PhoneCalls, []string{
		"call", "calls", "phone call", "called", "calling",
		"voicemail", "recording", "discussed", "conversation",
		"talk", "talked", "spoke", "spoken", "ring", "rang",
		"answered", "unanswered", "missed call",
	}},
	{PhoneMessages, []string{
		"sms", "text", "text message", "texted", "texting",
		"message sent", "message received",
	}},
	{EmailCommunications, []string{
		"quote", "quotes", "quoted", "pricing", "premium", "best quote",
		"cheapest quote", "lowest quote", "quote received", "quote details",
		"quote breakdown", "total amount", "amount due",
		"email", "emails", "sent", "received", "inbox",
		"subject", "sender", "recipient", "thread",
		"followup", "follow up", "unanswered", "pending",
		"awaiting response", "no reply",
	}},
}

// secondaryTable is consulted only when nothing in priorityTable matched.
var secondaryTable = []keywordSet{
	{CompaniesData, []string{
		"company name", "business name", "contact", "contact info",
		"contact details", "address", "phone number", "email address",
		"industry", "revenue", "employees", "website", "location",
		"business details", "company info", "company profile",
		"how many employees", "what industry", "annual revenue",
		"bold penguin id", "business information",
	}},
}

// Detect maps a question to a skill by lowercase substring matching.
// Overview keywords win outright, then the priority table in order, then the
// secondary table; no match falls back to General. Pure and total.
func Detect(question string) Skill {
	lower := strings.ToLower(question)

	for _, kw := range overviewKeywords {
		if strings.Contains(lower, kw) {
			return General
		}
	}
	for _, set := range priorityTable {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.skill
			}
		}
	}
	for _, set := range secondaryTable {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.skill
			}
		}
	}
	return General
}
