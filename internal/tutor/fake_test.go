package tutor

import (
	"context"
	"iter"
	"sync"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/llm"
)

// fakeStreamer yields a fixed list of fragments and then, optionally, an
// error. A request is only recorded once the sequence is ranged over.
type fakeStreamer struct {
	fragments []string
	err       error

	// started is closed when the first request begins; the stream then
	// waits for release before yielding anything.
	started chan struct{}
	release chan struct{}

	mu       sync.Mutex
	requests []llm.Request
}

func (f *fakeStreamer) Stream(ctx context.Context, req llm.Request) iter.Seq2[llm.Fragment, error] {
	return func(yield func(llm.Fragment, error) bool) {
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		if f.started != nil {
			close(f.started)
			<-f.release
		}
		for _, text := range f.fragments {
			if !yield(llm.Fragment{Text: text}, nil) {
				return
			}
		}
		if f.err != nil {
			yield(llm.Fragment{}, f.err)
		}
	}
}

func (f *fakeStreamer) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

// recorder captures every listener callback. It serves as a subscriber and
// as an exchange listener.
type recorder struct {
	mu            sync.Mutex
	partials      []string
	finals        []string
	failures      []*Failure
	conversations [][]conversation.Turn
	credentials   []bool
}

func (r *recorder) OnPartialReply(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partials = append(r.partials, text)
}

func (r *recorder) OnFinalReply(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals = append(r.finals, text)
}

func (r *recorder) OnError(f *Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

func (r *recorder) OnConversationChanged(turns []conversation.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations = append(r.conversations, turns)
}

func (r *recorder) Partials() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.partials...)
}

func (r *recorder) Failures() []*Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Failure(nil), r.failures...)
}

func (r *recorder) OnCredentialChanged(set bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credentials = append(r.credentials, set)
}

func newTestSession(streamer llm.Streamer) (*Session, *recorder) {
	s := NewSession("test", conversation.NewMemoryStore(), streamer, llm.Assembler{
		Model:             "gemini-3-flash-preview",
		SystemInstruction: DefaultSystemInstruction(),
	})
	return s, &recorder{}
}
