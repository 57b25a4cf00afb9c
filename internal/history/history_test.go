package history

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/comigor/tutor-go/internal/conversation"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore_AppendAndAll(t *testing.T) {
	s := openTestDB(t).Store(uuid.NewString())

	require.NoError(t, s.Append(conversation.UserTurn("뉴턴의 운동 법칙을 설명해 주세요.")))
	require.NoError(t, s.Append(conversation.AssistantTurn("세 가지 법칙이 있어요.")))

	turns, err := s.All()
	require.NoError(t, err)
	require.Equal(t, []conversation.Turn{
		{Role: conversation.RoleUser, Text: "뉴턴의 운동 법칙을 설명해 주세요."},
		{Role: conversation.RoleAssistant, Text: "세 가지 법칙이 있어요."},
	}, turns)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	db := openTestDB(t)
	a := db.Store("a")
	b := db.Store("b")

	require.NoError(t, a.Append(conversation.UserTurn("from a")))
	require.NoError(t, b.Append(conversation.UserTurn("from b")))
	require.NoError(t, a.Reset())

	turns, err := a.All()
	require.NoError(t, err)
	require.Empty(t, turns)

	turns, err = b.All()
	require.NoError(t, err)
	require.Equal(t, []conversation.Turn{conversation.UserTurn("from b")}, turns)
}

func TestStore_ResetOnEmpty(t *testing.T) {
	s := openTestDB(t).Store("empty")
	require.NoError(t, s.Reset())
	turns, err := s.All()
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open("file:history_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	s := db.Store("mem")
	require.NoError(t, s.Append(conversation.UserTurn("q")))
	turns, err := s.All()
	require.NoError(t, err)
	require.Len(t, turns, 1)
}
