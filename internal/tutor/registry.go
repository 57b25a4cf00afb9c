package tutor

import (
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/llm"
	"github.com/comigor/tutor-go/internal/logger"
)

// StoreFactory returns the transcript store for a new session.
type StoreFactory func(sessionID string) conversation.Store

// MemoryStores is a StoreFactory that keeps every transcript in memory.
func MemoryStores(string) conversation.Store {
	return conversation.NewMemoryStore()
}

// Registry owns the live sessions of a process, one per browser tab or
// client, keyed by UUIDv7.
type Registry struct {
	streamer  llm.Streamer
	assembler llm.Assembler
	newStore  StoreFactory

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. A nil newStore uses MemoryStores.
func NewRegistry(streamer llm.Streamer, assembler llm.Assembler, newStore StoreFactory) *Registry {
	if newStore == nil {
		newStore = MemoryStores
	}
	return &Registry{
		streamer:  streamer,
		assembler: assembler,
		newStore:  newStore,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a new session.
func (r *Registry) Create() *Session {
	id := uuid.Must(uuid.NewV7()).String()
	s := NewSession(id, r.newStore(id), r.streamer, r.assembler)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logger.L.Info("session created", "session", id)
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "%q", id)
	}
	return s, nil
}

// End clears the session's transcript and forgets it.
func (r *Registry) End(id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	if err := s.ResetConversation(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	logger.L.Info("session ended", "session", id)
	return nil
}

// ids returns the ids of all live sessions in creation order.
func (r *Registry) ids() []string {
	r.mu.RLock()
	ids := lo.Keys(r.sessions)
	r.mu.RUnlock()
	// UUIDv7 strings sort by creation time.
	slices.Sort(ids)
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
