// Package conversation holds the ordered chat transcript of a tutoring session.
package conversation

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Turn is a single message in the conversation. Turns are values and are
// never modified after they are appended; identity is the index in the
// transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserTurn returns a turn spoken by the student.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// AssistantTurn returns a turn spoken by the tutor.
func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

// Store holds the transcript of one session in insertion order. Alternation
// of user and assistant turns is the caller's responsibility and is never
// checked.
type Store interface {
	// Append adds a turn to the end of the transcript.
	Append(turn Turn) error
	// Reset clears the transcript.
	Reset() error
	// All returns a snapshot of the transcript in insertion order.
	All() ([]Turn, error)
}
