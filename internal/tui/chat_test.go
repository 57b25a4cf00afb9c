package tui

import (
	"context"
	"errors"
	"iter"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/llm"
	"github.com/comigor/tutor-go/internal/tutor"
)

type stubStreamer struct {
	fragments []string
	err       error
	calls     int
}

func (s *stubStreamer) Stream(ctx context.Context, req llm.Request) iter.Seq2[llm.Fragment, error] {
	s.calls++
	return func(yield func(llm.Fragment, error) bool) {
		for _, f := range s.fragments {
			if !yield(llm.Fragment{Text: f}, nil) {
				return
			}
		}
		if s.err != nil {
			yield(llm.Fragment{}, s.err)
		}
	}
}

func newTestModel(t *testing.T, streamer llm.Streamer) (*ChatModel, *tutor.Session) {
	t.Helper()
	sess := tutor.NewSession("tui", conversation.NewMemoryStore(), streamer, llm.Assembler{Model: "m"})
	m := NewChatModel(sess)
	t.Cleanup(func() { m.quit() })
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, sess
}

// drain feeds every queued session event to the model and returns them.
func drain(m *ChatModel) []tea.Msg {
	var msgs []tea.Msg
	for {
		select {
		case msg := <-m.bridge.events:
			msgs = append(msgs, msg)
			m.Update(msg)
		default:
			return msgs
		}
	}
}

func TestChat_Exchange(t *testing.T) {
	m, sess := newTestModel(t, &stubStreamer{fragments: []string{"가속도는 ", "속도의 변화율입니다."}})

	assert.Nil(t, m.handleInput("/key secret"))
	assert.True(t, sess.HasCredential())
	assert.True(t, m.credential)

	cmd := m.handleInput("가속도가 뭔가요?")
	require.NotNil(t, cmd)
	assert.True(t, m.streaming)

	assert.Nil(t, m.submit("가속도가 뭔가요?")())

	var (
		partials      []string
		conversations int
	)
	for _, msg := range drain(m) {
		switch msg := msg.(type) {
		case partialMsg:
			partials = append(partials, string(msg))
		case conversationMsg:
			conversations++
		}
	}
	assert.Equal(t, []string{"가속도는 ", "가속도는 속도의 변화율입니다."}, partials)
	assert.Equal(t, 2, conversations)

	assert.False(t, m.streaming)
	assert.Empty(t, m.partial)
	assert.Nil(t, m.failure)
	assert.Equal(t, []conversation.Turn{
		conversation.UserTurn("가속도가 뭔가요?"),
		conversation.AssistantTurn("가속도는 속도의 변화율입니다."),
	}, m.turns)
}

func TestChat_MissingCredential(t *testing.T) {
	streamer := &stubStreamer{fragments: []string{"x"}}
	m, _ := newTestModel(t, streamer)

	m.handleInput("F=ma가 무엇인가요?")
	m.submit("F=ma가 무엇인가요?")()
	drain(m)

	require.NotNil(t, m.failure)
	assert.Equal(t, tutor.KindPrecondition, m.failure.Kind)
	assert.Empty(t, m.turns)
	assert.Zero(t, streamer.calls)
	assert.Contains(t, m.View(), tutor.MsgMissingCredential)
}

func TestChat_RateLimitShowsNote(t *testing.T) {
	m, _ := newTestModel(t, &stubStreamer{err: errors.New("Error 429: RESOURCE_EXHAUSTED")})

	m.handleInput("/key secret")
	m.handleInput("q")
	m.submit("q")()
	drain(m)

	require.NotNil(t, m.failure)
	assert.Equal(t, tutor.KindRateLimit, m.failure.Kind)
	assert.Contains(t, m.transcript(), tutor.NoteRateLimit)
	assert.Equal(t, []conversation.Turn{conversation.UserTurn("q")}, m.turns)
}

func TestChat_Reset(t *testing.T) {
	m, sess := newTestModel(t, &stubStreamer{fragments: []string{"a"}})
	m.handleInput("/key secret")
	m.handleInput("q")
	m.submit("q")()
	drain(m)
	require.Len(t, m.turns, 2)

	assert.Nil(t, m.handleInput("/reset"))
	drain(m)

	assert.Empty(t, m.turns)
	turns, err := sess.Turns()
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestChat_ClearKey(t *testing.T) {
	m, sess := newTestModel(t, &stubStreamer{})
	m.handleInput("/key secret")
	m.handleInput("/key")
	assert.False(t, sess.HasCredential())
	assert.False(t, m.credential)
}

func TestChat_EnterIgnoredWhileStreaming(t *testing.T) {
	m, _ := newTestModel(t, &stubStreamer{})
	m.streaming = true
	m.textarea.SetValue("another question")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "another question", m.textarea.Value())
}

func TestChat_Quit(t *testing.T) {
	m, _ := newTestModel(t, &stubStreamer{})

	cmd := m.handleInput("/quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, m.bridge.wait()())
}

func TestChat_SuggestionsUntilFirstTurn(t *testing.T) {
	m, _ := newTestModel(t, &stubStreamer{fragments: []string{"a"}})
	assert.Contains(t, m.headerView(), tutor.SuggestedQuestions[0])

	m.handleInput("/key secret")
	m.handleInput("q")
	m.submit("q")()
	drain(m)
	assert.NotContains(t, m.headerView(), tutor.SuggestedQuestions[0])
}
