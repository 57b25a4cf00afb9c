package tutor

import (
	"sync"

	"github.com/comigor/tutor-go/internal/conversation"
)

// SessionListener receives session-wide changes. Callbacks run on the
// goroutine that mutated the session, in order.
type SessionListener interface {
	// OnConversationChanged is called after every transcript mutation.
	OnConversationChanged(turns []conversation.Turn)
	// OnCredentialChanged is called when the API key changes.
	OnCredentialChanged(set bool)
}

// ExchangeListener receives the events of a single SubmitPrompt call and
// nothing else.
type ExchangeListener interface {
	// OnPartialReply is called for every fragment with the text so far.
	OnPartialReply(text string)
	// OnFinalReply is called once with the complete reply.
	OnFinalReply(text string)
	// OnError is called with the classified failure of the exchange.
	OnError(f *Failure)
	// OnConversationChanged is called after each transcript change the
	// exchange makes.
	OnConversationChanged(turns []conversation.Turn)
}

// ListenerFuncs adapts plain functions to a SessionListener and an
// ExchangeListener. Nil fields are skipped.
type ListenerFuncs struct {
	PartialReply        func(text string)
	FinalReply          func(text string)
	Error               func(f *Failure)
	ConversationChanged func(turns []conversation.Turn)
	CredentialChanged   func(set bool)
}

func (l ListenerFuncs) OnPartialReply(text string) {
	if l.PartialReply != nil {
		l.PartialReply(text)
	}
}

func (l ListenerFuncs) OnFinalReply(text string) {
	if l.FinalReply != nil {
		l.FinalReply(text)
	}
}

func (l ListenerFuncs) OnError(f *Failure) {
	if l.Error != nil {
		l.Error(f)
	}
}

func (l ListenerFuncs) OnConversationChanged(turns []conversation.Turn) {
	if l.ConversationChanged != nil {
		l.ConversationChanged(turns)
	}
}

func (l ListenerFuncs) OnCredentialChanged(set bool) {
	if l.CredentialChanged != nil {
		l.CredentialChanged(set)
	}
}

// listeners fans events out to every subscriber.
type listeners struct {
	mu   sync.RWMutex
	next int
	subs map[int]SessionListener
}

func (ls *listeners) add(l SessionListener) func() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.subs == nil {
		ls.subs = make(map[int]SessionListener)
	}
	id := ls.next
	ls.next++
	ls.subs[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			ls.mu.Lock()
			defer ls.mu.Unlock()
			delete(ls.subs, id)
		})
	}
}

func (ls *listeners) each(fn func(SessionListener)) {
	ls.mu.RLock()
	subs := make([]SessionListener, 0, len(ls.subs))
	for i := 0; i < ls.next; i++ {
		if l, ok := ls.subs[i]; ok {
			subs = append(subs, l)
		}
	}
	ls.mu.RUnlock()

	for _, l := range subs {
		fn(l)
	}
}
