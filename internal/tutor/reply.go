package tutor

import (
	"slices"
	"strings"
)

// Cursor is drawn after partial reply text while the model is still
// generating. It is never part of the stored reply.
const Cursor = "▌"

// WithCursor returns partial reply text with the generating cursor appended.
func WithCursor(text string) string {
	return text + Cursor
}

// Reply accumulates the fragments of one streamed reply.
type Reply struct {
	fragments []string
	text      strings.Builder
}

// Add appends a fragment. Empty fragments are ignored and reported as false,
// so every accepted fragment strictly extends the text.
func (r *Reply) Add(fragment string) bool {
	if fragment == "" {
		return false
	}
	r.fragments = append(r.fragments, fragment)
	r.text.WriteString(fragment)
	return true
}

// Text returns the accumulated text.
func (r *Reply) Text() string {
	return r.text.String()
}

// Fragments returns the accepted fragments in arrival order.
func (r *Reply) Fragments() []string {
	return slices.Clone(r.fragments)
}
