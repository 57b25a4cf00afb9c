package llm

import (
	"github.com/samber/lo"

	"github.com/comigor/tutor-go/internal/conversation"
)

// Wire roles of the history format. The protocol calls the assistant "model".
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is a text part of a history entry.
type Part struct {
	Text string `json:"text"`
}

// Content is one role-tagged history entry.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Request is everything a provider needs for one exchange.
type Request struct {
	APIKey            string
	Model             string
	SystemInstruction string
	History           []Content
	Prompt            string
}

// Assembler turns a transcript into provider requests. SystemInstruction is
// attached to every request as session configuration, never as a turn.
type Assembler struct {
	Model             string
	SystemInstruction string
}

// Assemble builds the request for prompt. prior must be the transcript as it
// was before the prompt's own turn was appended; it is passed through whole,
// without trimming or reordering.
func (a Assembler) Assemble(apiKey string, prior []conversation.Turn, prompt string) Request {
	return Request{
		APIKey:            apiKey,
		Model:             a.Model,
		SystemInstruction: a.SystemInstruction,
		History:           History(prior),
		Prompt:            prompt,
	}
}

// History maps turns to the role-tagged history format.
func History(turns []conversation.Turn) []Content {
	return lo.Map(turns, func(t conversation.Turn, _ int) Content {
		return Content{
			Role:  WireRole(t.Role),
			Parts: []Part{{Text: t.Text}},
		}
	})
}

// WireRole maps a transcript role to its wire name: assistant becomes model,
// everything else is user.
func WireRole(r conversation.Role) string {
	if r == conversation.RoleAssistant {
		return RoleModel
	}
	return RoleUser
}

// Text returns the concatenated text of all parts.
func (c Content) Text() string {
	var s string
	for _, p := range c.Parts {
		s += p.Text
	}
	return s
}
