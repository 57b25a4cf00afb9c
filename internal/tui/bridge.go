package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/tutor"
)

type partialMsg string

type finalMsg string

type failureMsg struct{ failure *tutor.Failure }

type conversationMsg []conversation.Turn

type credentialMsg bool

type exchangeDoneMsg struct{ err error }

// bridge turns session callbacks, which run on the exchange goroutine, into
// tea messages read by the program loop.
type bridge struct {
	events chan tea.Msg
	done   chan struct{}
}

func newBridge() *bridge {
	return &bridge{
		events: make(chan tea.Msg, 256),
		done:   make(chan struct{}),
	}
}

func (b *bridge) send(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.done:
	}
}

func (b *bridge) close() {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

// wait returns a command that delivers the next session event.
func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) OnPartialReply(text string) { b.send(partialMsg(text)) }

func (b *bridge) OnFinalReply(text string) { b.send(finalMsg(text)) }

func (b *bridge) OnError(f *tutor.Failure) { b.send(failureMsg{failure: f}) }

func (b *bridge) OnConversationChanged(turns []conversation.Turn) {
	b.send(conversationMsg(turns))
}

func (b *bridge) OnCredentialChanged(set bool) { b.send(credentialMsg(set)) }
