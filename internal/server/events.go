package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/tutor"
)

// Event names on the prompt stream.
const (
	EventPartial      = "partial"
	EventFinal        = "final"
	EventError        = "error"
	EventConversation = "conversation"
)

// TextEvent carries reply text.
type TextEvent struct {
	Text string `json:"text"`
}

// ErrorEvent is the display form of a classified failure.
type ErrorEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Note    string `json:"note,omitempty"`
	Detail  string `json:"detail"`
}

// eventStream writes the events of one exchange to its HTTP response as
// server-sent events. Headers are sent with the first event.
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	started bool
}

var _ tutor.ExchangeListener = (*eventStream)(nil)

func newEventStream(w http.ResponseWriter) *eventStream {
	return &eventStream{w: w}
}

func (e *eventStream) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

func (e *eventStream) send(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		h := e.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}
	fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data)
	if f, ok := e.w.(http.Flusher); ok {
		f.Flush()
	}
}

func (e *eventStream) OnPartialReply(text string) {
	e.send(EventPartial, TextEvent{Text: tutor.WithCursor(text)})
}

func (e *eventStream) OnFinalReply(text string) {
	e.send(EventFinal, TextEvent{Text: text})
}

func (e *eventStream) OnError(f *tutor.Failure) {
	e.send(EventError, ErrorEvent{
		Kind:    f.Kind.String(),
		Message: f.Message,
		Note:    f.Note,
		Detail:  f.Detail,
	})
}

func (e *eventStream) OnConversationChanged(turns []conversation.Turn) {
	if turns == nil {
		turns = []conversation.Turn{}
	}
	e.send(EventConversation, turns)
}
