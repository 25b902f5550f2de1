// File path: internal/skill/allowlist.go
package skill

// Table names as they appear schema-qualified in generated SQL.
const (
	TableEmails        = "communications.emails_silver"
	TablePhoneCalls    = "communications.phone_call_silver"
	TablePhoneMessages = "communications.phone_message_silver"
	TableCompanies     = "public.companies"
	TableDocuments     = "public.documents_01_14"
	TableDocumentsJoin = "public.companies_documents_join"
)

var allTables = []string{
	TableEmails,
	TablePhoneCalls,
	TablePhoneMessages,
	TableCompanies,
	TableDocuments,
	TableDocumentsJoin,
}

// AllowedTables returns the tables a skill's generated SQL may reference.
// The companies table rides along everywhere so tenant scoping can join it.
func AllowedTables(s Skill) []string {
	switch s {
	case PhoneCalls:
		return []string{TablePhoneCalls, TableCompanies}
	case PhoneMessages:
		return []string{TablePhoneMessages, TableCompanies}
	case EmailCommunications:
		return []string{TableEmails, TableCompanies}
	case CompaniesData:
		return []string{TableCompanies}
	case Documents:
		return []string{TableDocuments, TableDocumentsJoin, TableCompanies}
	default:
		out := make([]string, len(allTables))
		copy(out, allTables)
		return out
	}
}
