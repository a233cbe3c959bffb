package domain

// Role tags a message with its conversational origin.
type Role string

const (
	// RoleUser marks content resolved from other columns.
	RoleUser Role = "user"
	// RoleAssistant marks content resolved from a column's own history.
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of an assembled conversation.
// Compute functions receive an ordered, strictly alternating list of these.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
