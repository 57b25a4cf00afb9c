// Package tutor implements a tutoring chat session: the API key gate, the
// transcript, request assembly, streamed reply handling and failure
// classification. Front-ends drive a Session through SubmitPrompt,
// SetCredential and ResetConversation. Each SubmitPrompt call reports its
// reply to its own ExchangeListener; subscribers see only transcript and
// credential changes.
package tutor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/qmuntal/stateless"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/llm"
	"github.com/comigor/tutor-go/internal/logger"
)

// Exchange states
type ExchangeState string

const (
	StateIdle      ExchangeState = "Idle"
	StateStreaming ExchangeState = "Streaming"
)

// Exchange triggers
type ExchangeTrigger string

const (
	TriggerSubmit   ExchangeTrigger = "Submit"
	TriggerComplete ExchangeTrigger = "Complete"
	TriggerFail     ExchangeTrigger = "Fail"
	TriggerReset    ExchangeTrigger = "Reset"
)

// Session is one student's conversation with the tutor. Sessions share
// nothing with each other.
type Session struct {
	id        string
	store     conversation.Store
	streamer  llm.Streamer
	assembler llm.Assembler
	listeners listeners

	mu         sync.Mutex // guards credential and fsm transitions
	credential string
	fsm        *stateless.StateMachine
}

// NewSession creates a session with an empty credential.
func NewSession(id string, store conversation.Store, streamer llm.Streamer, assembler llm.Assembler) *Session {
	s := &Session{
		id:        id,
		store:     store,
		streamer:  streamer,
		assembler: assembler,
		fsm:       stateless.NewStateMachine(StateIdle),
	}

	// Idle: a prompt starts an exchange, reset clears the transcript.
	s.fsm.Configure(StateIdle).
		Permit(TriggerSubmit, StateStreaming).
		PermitReentry(TriggerReset)

	// Streaming: exactly one exchange in flight; it ends by completing or failing.
	s.fsm.Configure(StateStreaming).
		Permit(TriggerComplete, StateIdle).
		Permit(TriggerFail, StateIdle)

	s.fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("exchange transition", "session", s.id, "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers l for transcript and credential changes and returns a
// function that removes it.
func (s *Session) Subscribe(l SessionListener) (unsubscribe func()) {
	return s.listeners.add(l)
}

// State returns the current exchange state.
func (s *Session) State() ExchangeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fsm.MustState().(ExchangeState)
}

// HasCredential reports whether an API key is set.
func (s *Session) HasCredential() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential != ""
}

// SetCredential replaces the API key. Setting the same key again is a no-op.
func (s *Session) SetCredential(key string) {
	s.mu.Lock()
	if key == s.credential {
		s.mu.Unlock()
		return
	}
	s.credential = key
	s.mu.Unlock()

	logger.L.Info("credential changed", "session", s.id, "set", key != "")
	s.listeners.each(func(l SessionListener) { l.OnCredentialChanged(key != "") })
}

// Turns returns a snapshot of the transcript.
func (s *Session) Turns() ([]conversation.Turn, error) {
	return s.store.All()
}

// ResetConversation clears the transcript. It fails with
// ErrExchangeInProgress while a reply is streaming.
func (s *Session) ResetConversation() error {
	if err := s.fire(TriggerReset); err != nil {
		return err
	}
	if err := s.store.Reset(); err != nil {
		return errors.Wrap(err, "reset conversation")
	}
	logger.L.Info("conversation reset", "session", s.id)
	s.publishConversation(nil)
	return nil
}

// SubmitPrompt runs one exchange: the prompt is appended as a user turn,
// sent with the preceding transcript, and the streamed reply is published
// fragment by fragment and finally appended as an assistant turn.
//
// Without a credential nothing is appended or sent and a precondition
// Failure is returned. Any provider failure leaves the user turn in place,
// commits no assistant turn, and is returned as a classified *Failure.
// Every Failure is also delivered to x.OnError. While another exchange is
// streaming the call fails with ErrExchangeInProgress and x receives
// nothing. x may be nil.
func (s *Session) SubmitPrompt(ctx context.Context, prompt string, x ExchangeListener) (err error) {
	if x == nil {
		x = ListenerFuncs{}
	}
	if strings.TrimSpace(prompt) == "" {
		return failed(x, preconditionFailure(ErrEmptyPrompt))
	}

	s.mu.Lock()
	key := s.credential
	if key == "" {
		s.mu.Unlock()
		return failed(x, preconditionFailure(ErrMissingCredential))
	}
	if ferr := s.fireLocked(TriggerSubmit); ferr != nil {
		s.mu.Unlock()
		return ferr
	}
	s.mu.Unlock()

	defer func() {
		trigger := TriggerComplete
		if err != nil {
			trigger = TriggerFail
		}
		if ferr := s.fire(trigger); ferr != nil {
			logger.L.Error("exchange state transition failed", "session", s.id, "error", ferr)
		}
	}()

	prior, err := s.store.All()
	if err != nil {
		return failed(x, Classify(err))
	}
	if err := s.store.Append(conversation.UserTurn(prompt)); err != nil {
		return failed(x, Classify(err))
	}
	s.publishConversation(x)

	req := s.assembler.Assemble(key, prior, prompt)
	start := time.Now()
	logger.L.Info("exchange started", "session", s.id, "model", req.Model, "history", len(req.History), "prompt_len", len(prompt))

	reply, err := s.stream(ctx, req, x)
	if err != nil {
		f := Classify(err)
		logger.L.Warn("exchange failed", "session", s.id, "kind", f.Kind.String(), "error", err, "fragments", len(reply.Fragments()))
		return failed(x, f)
	}

	text := reply.Text()
	x.OnFinalReply(text)
	if err := s.store.Append(conversation.AssistantTurn(text)); err != nil {
		return failed(x, Classify(err))
	}
	s.publishConversation(x)

	logger.L.Info("exchange completed", "session", s.id, "fragments", len(reply.Fragments()), "reply_len", len(text), "duration", time.Since(start))
	return nil
}

// stream consumes the fragment sequence once, publishing the text so far
// after every non-empty fragment.
func (s *Session) stream(ctx context.Context, req llm.Request, x ExchangeListener) (*Reply, error) {
	reply := &Reply{}
	for frag, err := range s.streamer.Stream(ctx, req) {
		if err != nil {
			return reply, err
		}
		if !reply.Add(frag.Text) {
			continue
		}
		x.OnPartialReply(reply.Text())
	}
	return reply, nil
}

func failed(x ExchangeListener, f *Failure) *Failure {
	x.OnError(f)
	return f
}

// publishConversation sends the transcript to every subscriber and, when the
// change belongs to an exchange, to its listener.
func (s *Session) publishConversation(x ExchangeListener) {
	turns, err := s.store.All()
	if err != nil {
		logger.L.Error("failed to read transcript", "session", s.id, "error", err)
		return
	}
	s.listeners.each(func(l SessionListener) { l.OnConversationChanged(turns) })
	if x != nil {
		x.OnConversationChanged(turns)
	}
}

func (s *Session) fire(trigger ExchangeTrigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fireLocked(trigger)
}

func (s *Session) fireLocked(trigger ExchangeTrigger) error {
	if err := s.fsm.Fire(trigger); err != nil {
		if s.fsm.MustState() == StateStreaming {
			return ErrExchangeInProgress
		}
		return errors.Wrapf(err, "exchange trigger %s", trigger)
	}
	return nil
}
