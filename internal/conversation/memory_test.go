package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AppendKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append(UserTurn("등가속도 운동 공식이 궁금해요?")))
	require.NoError(t, s.Append(AssistantTurn("좋은 질문이에요!")))
	require.NoError(t, s.Append(UserTurn("v = v0 + at 인가요?")))

	turns, err := s.All()
	require.NoError(t, err)
	require.Equal(t, []Turn{
		{Role: RoleUser, Text: "등가속도 운동 공식이 궁금해요?"},
		{Role: RoleAssistant, Text: "좋은 질문이에요!"},
		{Role: RoleUser, Text: "v = v0 + at 인가요?"},
	}, turns)
}

func TestMemoryStore_AllReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append(UserTurn("hi")))

	snap, err := s.All()
	require.NoError(t, err)
	snap[0].Text = "mutated"

	turns, err := s.All()
	require.NoError(t, err)
	require.Equal(t, "hi", turns[0].Text)
}

func TestMemoryStore_ResetIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Reset())
	turns, err := s.All()
	require.NoError(t, err)
	require.Empty(t, turns)

	require.NoError(t, s.Append(UserTurn("a")))
	require.NoError(t, s.Append(UserTurn("b")))
	require.NoError(t, s.Reset())
	turns, err = s.All()
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestMemoryStore_NoAlternationCheck(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append(UserTurn("first")))
	require.NoError(t, s.Append(UserTurn("second")))

	turns, err := s.All()
	require.NoError(t, err)
	require.Len(t, turns, 2)
	require.Equal(t, RoleUser, turns[1].Role)
}
